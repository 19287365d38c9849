// Package entities contains domain entities with identity and lifecycle.
// Entities are mutable and compared by their ID, not by their attributes.
//
// Pattern: Entity
// - Identity via ID, state changes only through methods
// - Self-validating (maintains invariants)
// - No knowledge of DB or HTTP
package entities

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/vowdesk/internal/domain/errors"
)

// PartnerStatus - статус партнёра в процессе онбординга.
type PartnerStatus string

const (
	PartnerStatusPending   PartnerStatus = "PENDING"   // Ждёт ревью
	PartnerStatusApproved  PartnerStatus = "APPROVED"  // Виден в каталоге
	PartnerStatusRejected  PartnerStatus = "REJECTED"  // Финальный статус
	PartnerStatusSuspended PartnerStatus = "SUSPENDED" // Временно скрыт
)

// IsValid checks if the status is one of the known values.
func (s PartnerStatus) IsValid() bool {
	switch s {
	case PartnerStatusPending, PartnerStatusApproved, PartnerStatusRejected, PartnerStatusSuspended:
		return true
	default:
		return false
	}
}

// PartnerCategory - вид услуг партнёра.
type PartnerCategory string

const (
	CategoryVenue       PartnerCategory = "VENUE"
	CategoryFlorist     PartnerCategory = "FLORIST"
	CategoryPhotography PartnerCategory = "PHOTOGRAPHY"
	CategoryCatering    PartnerCategory = "CATERING"
	CategoryAttire      PartnerCategory = "ATTIRE"
	CategoryStationery  PartnerCategory = "STATIONERY"
	CategoryOther       PartnerCategory = "OTHER"
)

// PartnerCategories returns every known category in display order.
func PartnerCategories() []PartnerCategory {
	return []PartnerCategory{
		CategoryVenue, CategoryFlorist, CategoryPhotography, CategoryCatering,
		CategoryAttire, CategoryStationery, CategoryOther,
	}
}

// IsValid checks if the category is known.
func (c PartnerCategory) IsValid() bool {
	for _, known := range PartnerCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// ParsePartnerCategory нормализует регистр и проверяет значение.
func ParsePartnerCategory(raw string) (PartnerCategory, error) {
	c := PartnerCategory(strings.ToUpper(strings.TrimSpace(raw)))
	if !c.IsValid() {
		return "", errors.Validation("category", fmt.Sprintf("unknown partner category %q", raw))
	}
	return c, nil
}

// ParsePartnerStatus нормализует регистр и проверяет значение.
func ParsePartnerStatus(raw string) (PartnerStatus, error) {
	s := PartnerStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", errors.Validation("status", fmt.Sprintf("unknown partner status %q", raw))
	}
	return s, nil
}

const (
	maxCompanyNameLen = 200
	maxReasonLen      = 1000
)

// Partner - вендор свадебных услуг, проходящий онбординг в рамках тенанта.
//
// Business Rules:
// - Новый партнёр всегда PENDING
// - PENDING -> APPROVED | REJECTED (причина обязательна)
// - APPROVED -> SUSPENDED, SUSPENDED -> APPROVED
// - REJECTED финальный
// - version растёт при каждом изменении (optimistic locking)
type Partner struct {
	id              uuid.UUID
	tenantID        string
	companyName     string
	contactEmail    string
	category        PartnerCategory
	website         string
	status          PartnerStatus
	rejectionReason string
	createdAt       time.Time
	updatedAt       time.Time
	reviewedAt      *time.Time
	version         int64
}

// NewPartner creates a pending partner after validating the profile.
func NewPartner(tenantID, companyName, contactEmail string, category PartnerCategory, website string) (*Partner, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, errors.Validation("tenant_id", "tenant is required")
	}

	p := &Partner{
		id:       uuid.New(),
		tenantID: tenantID,
		status:   PartnerStatusPending,
	}
	if err := p.setProfile(companyName, contactEmail, category, website); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p.createdAt = now
	p.updatedAt = now
	return p, nil
}

// ReconstructPartner hydrates a Partner from storage. No validation.
func ReconstructPartner(
	id uuid.UUID,
	tenantID, companyName, contactEmail string,
	category PartnerCategory,
	website string,
	status PartnerStatus,
	rejectionReason string,
	createdAt, updatedAt time.Time,
	reviewedAt *time.Time,
	version int64,
) *Partner {
	return &Partner{
		id:              id,
		tenantID:        tenantID,
		companyName:     companyName,
		contactEmail:    contactEmail,
		category:        category,
		website:         website,
		status:          status,
		rejectionReason: rejectionReason,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
		reviewedAt:      reviewedAt,
		version:         version,
	}
}

func (p *Partner) ID() uuid.UUID             { return p.id }
func (p *Partner) TenantID() string          { return p.tenantID }
func (p *Partner) CompanyName() string       { return p.companyName }
func (p *Partner) ContactEmail() string      { return p.contactEmail }
func (p *Partner) Category() PartnerCategory { return p.category }
func (p *Partner) Website() string           { return p.website }
func (p *Partner) Status() PartnerStatus     { return p.status }
func (p *Partner) RejectionReason() string   { return p.rejectionReason }
func (p *Partner) CreatedAt() time.Time      { return p.createdAt }
func (p *Partner) UpdatedAt() time.Time      { return p.updatedAt }
func (p *Partner) ReviewedAt() *time.Time    { return p.reviewedAt }

// Version - версия для optimistic locking. Хранилище ожидает Version()-1.
func (p *Partner) Version() int64 { return p.version }

// UpdateProfile replaces the editable profile fields.
// Rejected partners are frozen.
func (p *Partner) UpdateProfile(companyName, contactEmail string, category PartnerCategory, website string) error {
	if p.status == PartnerStatusRejected {
		return errors.Conflict("rejected partner cannot be edited")
	}
	if err := p.setProfile(companyName, contactEmail, category, website); err != nil {
		return err
	}
	p.updatedAt = time.Now().UTC()
	p.version++
	return nil
}

// Approve moves PENDING or SUSPENDED to APPROVED.
func (p *Partner) Approve() error {
	if p.status != PartnerStatusPending && p.status != PartnerStatusSuspended {
		return p.transitionError(PartnerStatusApproved)
	}
	p.rejectionReason = ""
	p.markReviewed(PartnerStatusApproved)
	return nil
}

// Reject moves PENDING to REJECTED. The reason is shown to the partner.
func (p *Partner) Reject(reason string) error {
	if p.status != PartnerStatusPending {
		return p.transitionError(PartnerStatusRejected)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errors.Validation("reason", "rejection reason is required")
	}
	if len(reason) > maxReasonLen {
		return errors.Validation("reason", fmt.Sprintf("rejection reason must be at most %d characters", maxReasonLen))
	}
	p.rejectionReason = reason
	p.markReviewed(PartnerStatusRejected)
	return nil
}

// Suspend moves APPROVED to SUSPENDED.
func (p *Partner) Suspend() error {
	if p.status != PartnerStatusApproved {
		return p.transitionError(PartnerStatusSuspended)
	}
	p.markReviewed(PartnerStatusSuspended)
	return nil
}

func (p *Partner) markReviewed(to PartnerStatus) {
	now := time.Now().UTC()
	p.status = to
	p.updatedAt = now
	p.reviewedAt = &now
	p.version++
}

func (p *Partner) transitionError(to PartnerStatus) error {
	return errors.Conflict(fmt.Sprintf("partner cannot move from %s to %s", p.status, to))
}

func (p *Partner) setProfile(companyName, contactEmail string, category PartnerCategory, website string) error {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return errors.Validation("company_name", "company name is required")
	}
	if len(companyName) > maxCompanyNameLen {
		return errors.Validation("company_name", fmt.Sprintf("company name must be at most %d characters", maxCompanyNameLen))
	}

	contactEmail = strings.ToLower(strings.TrimSpace(contactEmail))
	if addr, err := mail.ParseAddress(contactEmail); err != nil || addr.Address != contactEmail {
		return errors.Validation("contact_email", "contact email must be a valid email address")
	}

	if !category.IsValid() {
		return errors.Validation("category", fmt.Sprintf("unknown partner category %q", category))
	}

	website = strings.TrimSpace(website)
	if website != "" {
		u, err := url.Parse(website)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.Validation("website", "website must be an http(s) URL")
		}
	}

	p.companyName = companyName
	p.contactEmail = contactEmail
	p.category = category
	p.website = website
	return nil
}
