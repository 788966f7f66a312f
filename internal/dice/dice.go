package dice

import (
	"math/rand"
	"sync"
	"time"
)

// Sides is the number of faces of the race dice
const Sides = 6

//go:generate mockgen -package=mocks -destination=mocks/mock_roller.go github.com/KirkDiggler/horserace/internal/dice Roller
type Roller interface {
	// Roll returns a uniform value in 1..sides
	Roll(sides int) int
}

// RandomRoller provides dice rolling functionality backed by a seedable source
type RandomRoller struct {
	mu     sync.Mutex
	random *rand.Rand
}

// Config for dice roller
type Config struct {
	// Optional seed for testing
	Seed int64
}

// New creates a new dice roller
func New(cfg *Config) *RandomRoller {
	var seed int64
	if cfg != nil && cfg.Seed != 0 {
		seed = cfg.Seed
	} else {
		seed = time.Now().UnixNano()
	}

	return &RandomRoller{
		random: rand.New(rand.NewSource(seed)),
	}
}

// Roll generates a random dice roll with the specified number of sides
func (r *RandomRoller) Roll(sides int) int {
	if sides < 1 {
		sides = Sides
	}

	// rand.Rand is not safe for concurrent use and games roll in parallel
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.random.Intn(sides) + 1
}
