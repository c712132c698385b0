package catalog

import (
	"context"
	"errors"
)

// Store is the authoritative product collection. Every mutation passes through it.
type Store interface {
	// List returns all products in insertion order.
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	// Create validates in, assigns a fresh id and stores the product.
	Create(ctx context.Context, in ProductInput) (Product, error)
	// Update replaces every mutable field of the product with id.
	Update(ctx context.Context, id string, in ProductInput) (Product, error)
	// Delete removes the product with id and returns it.
	Delete(ctx context.Context, id string) (Product, error)
	Ping(ctx context.Context) error
}

// maxIDAttempts bounds the retry loop on id collisions.
const maxIDAttempts = 5

var errIDExhausted = errors.New("could not generate a unique product id")
