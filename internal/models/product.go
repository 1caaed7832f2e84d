package models

import "time"

// Product represents a product in the catalog.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	InStock     bool      `json:"inStock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductInput holds the client-writable fields of a product.
// InStock is nil when the client did not send it.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Category    string
	InStock     *bool
}

// Apply copies the input onto p. InStock is only replaced when supplied.
func (in ProductInput) Apply(p *Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Category = in.Category
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
}
