package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
)

const (
	IDSchemeNanoID = "nanoid"
	IDSchemeUUID   = "uuid"

	DefaultIDSize = 6
)

// IDFunc returns a new opaque product id on each call.
type IDFunc func() string

// NewIDGenerator returns an id source for scheme. Size applies to nanoid only;
// nanoid ids use the URL-safe alphabet A-Za-z0-9_- .
func NewIDGenerator(scheme string, size int) (IDFunc, error) {
	switch scheme {
	case "", IDSchemeNanoID:
		if size <= 0 {
			size = DefaultIDSize
		}
		gen, err := nanoid.Standard(size)
		if err != nil {
			return nil, fmt.Errorf("nanoid(%d): %w", size, err)
		}
		return IDFunc(gen), nil
	case IDSchemeUUID:
		return uuid.NewString, nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q", scheme)
	}
}

const maxIDLen = 64

// ValidID reports whether id could have been produced by any generator.
func ValidID(id string) bool {
	if id == "" || len(id) > maxIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
