package catalog

import (
	"context"
	"fmt"
	"strings"
)

const (
	SeedNone      = "none"
	SeedCatalog   = "catalog"
	SeedGenerated = "generated"
)

func rating(v float64) *float64 { return &v }

// DemoCatalog is the fixed demonstration catalog.
func DemoCatalog() []ProductInput {
	return []ProductInput{
		{Name: "Silver cup", Category: "Tableware", Description: "Refined cup of pure silver", Price: 2500, Stock: 15, Rating: rating(4.8)},
		{Name: "Ceramic teapot", Category: "Tableware", Description: "Traditional red clay teapot", Price: 890, Stock: 20, Rating: rating(4.5)},
		{Name: "Linen tablecloth", Category: "Textile", Description: "Natural linen tablecloth 150x200cm", Price: 1200, Stock: 8, Rating: rating(4.7)},
		{Name: "Wooden bread board", Category: "Kitchen", Description: "Solid oak cutting board", Price: 550, Stock: 25, Rating: rating(4.6)},
		{Name: "Glass goblets", Category: "Tableware", Description: "Set of 6 crystal wine glasses", Price: 3200, Stock: 12, Rating: rating(4.9)},
		{Name: "Linen napkins", Category: "Textile", Description: "Set of 12 linen napkins 45x45cm", Price: 780, Stock: 30, Rating: rating(4.4)},
		{Name: "Porcelain plate", Category: "Tableware", Description: "Hand-decorated porcelain plate", Price: 450, Stock: 40, Rating: rating(4.7)},
		{Name: "Decorative vase", Category: "Decor", Description: "Hand-painted ceramic vase", Price: 1800, Stock: 7, Rating: rating(4.85)},
		{Name: "Kitchen towels", Category: "Textile", Description: "Set of 5 terry kitchen towels", Price: 650, Stock: 50, Rating: rating(4.3)},
		{Name: "Wooden coasters", Category: "Decor", Description: "Set of 4 wooden trivets", Price: 380, Stock: 35, Rating: rating(4.6)},
		{Name: "Silver tray", Category: "Tableware", Description: "Filigree silver tray with handles", Price: 4500, Stock: 5, Rating: rating(4.9)},
		{Name: "Porcelain tea set", Category: "Tableware", Description: "Complete porcelain tea set for 6", Price: 5800, Stock: 6, Rating: rating(5)},
	}
}

var (
	demoColors = []string{"red", "green", "blue", "violet"}
	demoItems  = []string{"fork", "knife", "plate", "teapot"}
)

// GeneratedCatalog builds n synthetic products cycling through colors and items.
func GeneratedCatalog(n int) []ProductInput {
	out := make([]ProductInput, 0, n)
	for i := range n {
		color := demoColors[i%len(demoColors)]
		item := demoItems[(i+1)%len(demoItems)]
		out = append(out, ProductInput{
			Name:        color + " " + item,
			Category:    item,
			Description: fmt.Sprintf("A %s %s, demo item #%d", color, item, i+1),
			Price:       float64((i + 1) * 90),
			Stock:       (i * 7) % 50,
		})
	}
	return out
}

// SeedProducts resolves a seed mode name into its products.
func SeedProducts(mode string, count int) ([]ProductInput, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", SeedNone:
		return nil, nil
	case SeedCatalog:
		return DemoCatalog(), nil
	case SeedGenerated:
		return GeneratedCatalog(count), nil
	default:
		return nil, fmt.Errorf("unknown seed mode %q", mode)
	}
}

// SeedIfEmpty inserts items when s holds no products and reports how many it added.
// A non-empty store is left untouched so persistent backends are seeded once.
func SeedIfEmpty(ctx context.Context, s Store, items []ProductInput) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	existing, err := s.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: list: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i, in := range items {
		if _, err := s.Create(ctx, in); err != nil {
			return i, fmt.Errorf("seed %q: %w", in.Name, err)
		}
	}
	return len(items), nil
}
