// Package dtos определяет Data Transfer Objects для передачи данных между слоями.
//
// Domain entities не уходят за пределы application layer: HTTP получает DTO,
// а validate-теги описывают форму тела запроса.
//
// Pattern: Data Transfer Object
package dtos

import "time"

// ============================================
// Commands (Write операции - изменяют состояние)
// ============================================

// CreatePartnerCommand - заявка вендора на онбординг.
// TenantID и SubmittedBy заполняются из principal, не из тела.
type CreatePartnerCommand struct {
	TenantID     string `json:"-"`
	SubmittedBy  string `json:"-"`
	CompanyName  string `json:"company_name" validate:"required,min=2,max=200"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	Category     string `json:"category" validate:"required,partner_category"`
	Website      string `json:"website,omitempty" validate:"omitempty,url"`
}

// UpdatePartnerCommand - частичное обновление профиля (PATCH).
type UpdatePartnerCommand struct {
	TenantID     string  `json:"-"`
	PartnerID    string  `json:"-"`
	CompanyName  *string `json:"company_name,omitempty" validate:"omitempty,min=2,max=200"` // nil = не изменять
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	Category     *string `json:"category,omitempty" validate:"omitempty,partner_category"`
	Website      *string `json:"website,omitempty" validate:"omitempty,url"`
}

// ReviewPartnerCommand - решение админа по партнёру.
type ReviewPartnerCommand struct {
	TenantID   string `json:"-"`
	PartnerID  string `json:"-"`
	ReviewerID string `json:"-"`
	Reason     string `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

// DeletePartnerCommand - удаление партнёра админом.
type DeletePartnerCommand struct {
	TenantID  string
	PartnerID string
	DeletedBy string
}

// ============================================
// Queries (Read операции - не изменяют состояние)
// ============================================

// GetPartnerQuery - запрос для получения партнёра по ID.
type GetPartnerQuery struct {
	TenantID  string
	PartnerID string
}

// ListPartnersQuery - запрос для получения списка партнёров.
// Пустые Status/Category = без фильтра.
type ListPartnersQuery struct {
	TenantID string
	Status   string
	Category string
	Page     int
	Limit    int
}

// ============================================
// Response DTOs (Результаты операций)
// ============================================

// PartnerDTO - представление партнёра для API.
type PartnerDTO struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"`
	CompanyName     string     `json:"company_name"`
	ContactEmail    string     `json:"contact_email"`
	Category        string     `json:"category"`
	Website         string     `json:"website,omitempty"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
}

// PartnerPage - страница результатов List.
type PartnerPage struct {
	Items []PartnerDTO
	Total int
	Page  int
	Limit int
}
