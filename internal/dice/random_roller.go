package dice

import (
	"math/rand"
	"sync"
	"time"

	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
)

// randomRoller implements Roller over a uniform pseudo-random source
type randomRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomRoller creates a new random dice roller
func NewRandomRoller() Roller {
	return NewSeededRoller(time.Now().UnixNano())
}

// NewSeededRoller creates a random roller with a fixed seed so sequences are reproducible
func NewSeededRoller(seed int64) Roller {
	return &randomRoller{
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (r *randomRoller) die(sides int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(sides) + 1
}

// Roll implements Roller.Roll
func (r *randomRoller) Roll(count, sides, bonus int) (*RollResult, error) {
	if err := validateDice(count, sides); err != nil {
		return nil, err
	}

	rolls := make([]int, count)
	total := 0
	for i := range rolls {
		rolls[i] = r.die(sides)
		total += rolls[i]
	}

	return NewRollResult(rolls, count, total, sides, bonus), nil
}

// RollWithAdvantage implements Roller.RollWithAdvantage
func (r *randomRoller) RollWithAdvantage(sides, bonus int) (*RollResult, error) {
	if err := validateDice(1, sides); err != nil {
		return nil, err
	}
	roll1, roll2 := r.die(sides), r.die(sides)
	return NewRollResult([]int{roll1, roll2}, 1, max(roll1, roll2), sides, bonus), nil
}

// RollWithDisadvantage implements Roller.RollWithDisadvantage
func (r *randomRoller) RollWithDisadvantage(sides, bonus int) (*RollResult, error) {
	if err := validateDice(1, sides); err != nil {
		return nil, err
	}
	roll1, roll2 := r.die(sides), r.die(sides)
	return NewRollResult([]int{roll1, roll2}, 1, min(roll1, roll2), sides, bonus), nil
}

func validateDice(count, sides int) error {
	if count < 1 {
		return dnderr.InvalidExpressionf("invalid dice count %d", count).
			WithMeta("count", count)
	}
	if sides < 1 {
		return dnderr.InvalidExpressionf("invalid dice size %d", sides).
			WithMeta("sides", sides)
	}
	return nil
}
