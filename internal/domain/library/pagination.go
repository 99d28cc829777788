package library

// Pagination represents pagination information for list responses.
type Pagination struct {
	Total      int64 // Total number of records
	Page       int64 // Current page number (1-based)
	Limit      int64 // Number of records per page
	TotalPages int64 // Total number of pages
}

// NewPagination creates a Pagination for the requested page, clamping the
// page number into the valid range: values below 1 become 1 and values past
// the end become the last page.
func NewPagination(total, page, limit int64) *Pagination {
	var totalPages int64
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	return &Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

// Offset returns the record offset for the clamped page.
func (p *Pagination) Offset() int64 {
	return (p.Page - 1) * p.Limit
}

// HasPrev reports whether a previous page exists.
func (p *Pagination) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a next page exists.
func (p *Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

// PrevPage returns the previous page number, clamped to 1.
func (p *Pagination) PrevPage() int64 {
	if p.Page <= 1 {
		return 1
	}
	return p.Page - 1
}

// NextPage returns the next page number, clamped to the last page.
func (p *Pagination) NextPage() int64 {
	if p.Page >= p.TotalPages {
		return p.TotalPages
	}
	return p.Page + 1
}
