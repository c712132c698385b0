package catalog

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrNotFound is returned when no product exists for an id.
var ErrNotFound = errors.New("product not found")

type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	Image       string   `json:"image,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
}

// ProductInput is the full set of mutable product fields.
type ProductInput struct {
	Name        string   `json:"name" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Price       float64  `json:"price" validate:"gt=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Image       string   `json:"image,omitempty"`
	Rating      *float64 `json:"rating,omitempty" validate:"omitempty,min=1,max=10"`
}

func (in ProductInput) product(id string) Product {
	return Product{
		ID:          id,
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Image:       in.Image,
		Rating:      cloneRating(in.Rating),
	}
}

// Input returns the mutable fields of p.
func (p Product) Input() ProductInput {
	return ProductInput{
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Image:       p.Image,
		Rating:      cloneRating(p.Rating),
	}
}

func (p Product) clone() Product {
	p.Rating = cloneRating(p.Rating)
	return p
}

func cloneRating(r *float64) *float64 {
	if r == nil {
		return nil
	}
	v := *r
	return &v
}

// ValidationError lists the offending fields of a payload, keyed by JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = reason
	}
}

func (e *ValidationError) empty() bool { return len(e.Fields) == 0 }
