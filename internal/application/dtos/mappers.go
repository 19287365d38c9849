// Package dtos - Mappers для конвертации domain entities в DTOs.
//
// Pattern: Mapper/Converter
package dtos

import "github.com/Haleralex/vowdesk/internal/domain/entities"

// ToPartnerDTO конвертирует domain entity Partner в DTO.
func ToPartnerDTO(p *entities.Partner) PartnerDTO {
	return PartnerDTO{
		ID:              p.ID().String(),
		TenantID:        p.TenantID(),
		CompanyName:     p.CompanyName(),
		ContactEmail:    p.ContactEmail(),
		Category:        string(p.Category()),
		Website:         p.Website(),
		Status:          string(p.Status()),
		RejectionReason: p.RejectionReason(),
		CreatedAt:       p.CreatedAt(),
		UpdatedAt:       p.UpdatedAt(),
		ReviewedAt:      p.ReviewedAt(),
	}
}

// ToPartnerDTOList конвертирует список партнёров.
// Пустой вход даёт пустой (не nil) срез, чтобы в JSON был [].
func ToPartnerDTOList(partners []*entities.Partner) []PartnerDTO {
	result := make([]PartnerDTO, len(partners))
	for i, p := range partners {
		result[i] = ToPartnerDTO(p)
	}
	return result
}
