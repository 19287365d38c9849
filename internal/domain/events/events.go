// Package events defines domain events that represent significant business occurrences.
// Events are immutable facts about what happened in the past.
//
// Pattern: Domain Events
// - Events are raised by use cases when partner state changes
// - Stored in the outbox inside the same transaction
// - Relayed to the broker asynchronously
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID // ID of the entity that raised this event
}

// BaseEvent provides common fields for all events.
// Embedded in specific event types to avoid duplication (DRY).
type BaseEvent struct {
	eventID     uuid.UUID
	eventType   string
	occurredAt  time.Time
	aggregateID uuid.UUID
}

func newBaseEvent(eventType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New(),
		eventType:   eventType,
		occurredAt:  time.Now().UTC(),
		aggregateID: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID     { return e.eventID }
func (e BaseEvent) EventType() string      { return e.eventType }
func (e BaseEvent) OccurredAt() time.Time  { return e.occurredAt }
func (e BaseEvent) AggregateID() uuid.UUID { return e.aggregateID }

// Event Types
const (
	EventTypePartnerSubmitted = "partner.submitted"
	EventTypePartnerReviewed  = "partner.reviewed"
	EventTypePartnerDeleted   = "partner.deleted"
)

// Review decisions carried by PartnerReviewed.
const (
	DecisionApproved  = "approved"
	DecisionRejected  = "rejected"
	DecisionSuspended = "suspended"
)

// ===== Partner Events =====

// PartnerSubmitted is raised when a vendor applies to join a tenant's catalogue.
type PartnerSubmitted struct {
	BaseEvent
	TenantID     string `json:"tenantId"`
	CompanyName  string `json:"companyName"`
	ContactEmail string `json:"contactEmail"`
	Category     string `json:"category"`
	SubmittedBy  string `json:"submittedBy"`
}

func NewPartnerSubmitted(partnerID uuid.UUID, tenantID, companyName, contactEmail, category, submittedBy string) *PartnerSubmitted {
	return &PartnerSubmitted{
		BaseEvent:    newBaseEvent(EventTypePartnerSubmitted, partnerID),
		TenantID:     tenantID,
		CompanyName:  companyName,
		ContactEmail: contactEmail,
		Category:     category,
		SubmittedBy:  submittedBy,
	}
}

// PartnerReviewed is raised on approve, reject and suspend.
// Consumers notify the vendor and refresh the public catalogue.
type PartnerReviewed struct {
	BaseEvent
	TenantID   string `json:"tenantId"`
	Decision   string `json:"decision"`
	FromStatus string `json:"fromStatus"`
	ToStatus   string `json:"toStatus"`
	Reason     string `json:"reason,omitempty"`
	ReviewerID string `json:"reviewerId"`
}

func NewPartnerReviewed(partnerID uuid.UUID, tenantID, decision, from, to, reason, reviewerID string) *PartnerReviewed {
	return &PartnerReviewed{
		BaseEvent:  newBaseEvent(EventTypePartnerReviewed, partnerID),
		TenantID:   tenantID,
		Decision:   decision,
		FromStatus: from,
		ToStatus:   to,
		Reason:     reason,
		ReviewerID: reviewerID,
	}
}

// PartnerDeleted is raised when an admin removes a partner.
type PartnerDeleted struct {
	BaseEvent
	TenantID  string `json:"tenantId"`
	DeletedBy string `json:"deletedBy"`
}

func NewPartnerDeleted(partnerID uuid.UUID, tenantID, deletedBy string) *PartnerDeleted {
	return &PartnerDeleted{
		BaseEvent: newBaseEvent(EventTypePartnerDeleted, partnerID),
		TenantID:  tenantID,
		DeletedBy: deletedBy,
	}
}

// ===== Wire format =====

// Raw is an event loaded back from storage: metadata plus the JSON payload
// written at save time.
type Raw struct {
	BaseEvent
	payload []byte
}

// NewRaw rebuilds a stored event without knowing its concrete type.
func NewRaw(id uuid.UUID, eventType string, aggregateID uuid.UUID, occurredAt time.Time, payload []byte) *Raw {
	return &Raw{
		BaseEvent: BaseEvent{
			eventID:     id,
			eventType:   eventType,
			occurredAt:  occurredAt,
			aggregateID: aggregateID,
		},
		payload: payload,
	}
}

// Payload returns the stored JSON body.
func (r *Raw) Payload() []byte { return r.payload }

// Payload returns the JSON body of an event: exported fields only,
// metadata lives in Message.
func Payload(event DomainEvent) ([]byte, error) {
	if raw, ok := event.(*Raw); ok {
		return raw.Payload(), nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event.EventType(), err)
	}
	return data, nil
}

// Message is what goes over the broker.
type Message struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	AggregateID uuid.UUID       `json:"aggregateId"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Data        json.RawMessage `json:"data"`
}

// Encode builds the broker message for an event.
func Encode(event DomainEvent) ([]byte, error) {
	data, err := Payload(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{
		ID:          event.EventID(),
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Data:        data,
	})
}
