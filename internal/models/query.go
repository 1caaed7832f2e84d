package models

// ProductFilter is a store-agnostic filter predicate. Zero values mean
// "no clause"; all present clauses are combined with AND.
type ProductFilter struct {
	// Category is matched as a case-insensitive substring.
	Category string
	InStock  *bool
	MinPrice *float64
	MaxPrice *float64
	// Search is matched as a case-insensitive substring of name OR description.
	Search string
}

// ListQuery is the parsed form of a listing request.
type ListQuery struct {
	Filter ProductFilter
	Page   int
	Limit  int
}

// Offset returns the number of records to skip for the page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalProducts int64 `json:"totalProducts"`
	HasNext       bool  `json:"hasNext"`
	HasPrev       bool  `json:"hasPrev"`
}

// ProductPage is one page of a listing.
type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}
