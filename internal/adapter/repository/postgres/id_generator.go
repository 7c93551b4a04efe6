package postgres

import (
	"github.com/oklog/ulid/v2"

	"github.com/iho/gosplit/internal/domain"
)

// ULIDGenerator generates ULID-based IDs whose time component comes from clock.
type ULIDGenerator struct {
	clock domain.Clock
}

// NewULIDGenerator creates a new ULIDGenerator. A nil clock uses the system clock.
func NewULIDGenerator(clock domain.Clock) *ULIDGenerator {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &ULIDGenerator{clock: clock}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.MustNew(ulid.Timestamp(g.clock.Now()), ulid.DefaultEntropy()).String()
}
