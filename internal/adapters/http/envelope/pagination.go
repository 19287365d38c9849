package envelope

// Pagination - блок пагинации в meta.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NewPagination строит блок пагинации.
//
// Некорректные входы приводятся к допустимым: limit >= 1, page >= 1,
// total >= 0.
func NewPagination(page, limit, total int) Pagination {
	if limit < 1 {
		limit = 1
	}
	if page < 1 {
		page = 1
	}
	if total < 0 {
		total = 0
	}

	totalPages := total / limit
	if total%limit > 0 {
		totalPages++
	}

	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// Offset вычисляет offset для SQL запроса.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
