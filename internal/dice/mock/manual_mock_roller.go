package mockdice

import (
	"fmt"
	"sync"

	"github.com/KirkDiggler/dnd-narrator/internal/dice"
)

// ManualMockRoller implements dice.Roller for testing with predetermined results
type ManualMockRoller struct {
	mu        sync.Mutex
	rolls     []int
	rollIndex int
}

// NewManualMockRoller creates a new mock dice roller
func NewManualMockRoller() *ManualMockRoller {
	return &ManualMockRoller{
		rolls: []int{},
	}
}

// SetNextRoll queues one more roll result
func (m *ManualMockRoller) SetNextRoll(roll int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolls = append(m.rolls, roll)
}

// SetRolls replaces the queued roll results
func (m *ManualMockRoller) SetRolls(rolls []int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolls = rolls
	m.rollIndex = 0
}

// Remaining returns how many queued rolls have not been used
func (m *ManualMockRoller) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rolls) - m.rollIndex
}

func (m *ManualMockRoller) next(sides int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rollIndex >= len(m.rolls) {
		return 0, fmt.Errorf("no more predetermined rolls available (used %d of %d)", m.rollIndex, len(m.rolls))
	}

	roll := m.rolls[m.rollIndex]
	if roll < 1 || roll > sides {
		return 0, fmt.Errorf("invalid roll %d for d%d", roll, sides)
	}
	m.rollIndex++
	return roll, nil
}

// Roll implements dice.Roller.Roll
func (m *ManualMockRoller) Roll(count, sides, bonus int) (*dice.RollResult, error) {
	if count < 1 {
		return nil, fmt.Errorf("invalid dice count %d", count)
	}

	rolls := make([]int, count)
	total := 0
	for i := range rolls {
		roll, err := m.next(sides)
		if err != nil {
			return nil, err
		}
		rolls[i] = roll
		total += roll
	}

	return dice.NewRollResult(rolls, count, total, sides, bonus), nil
}

// RollWithAdvantage implements dice.Roller.RollWithAdvantage
func (m *ManualMockRoller) RollWithAdvantage(sides, bonus int) (*dice.RollResult, error) {
	roll1, roll2, err := m.pair(sides)
	if err != nil {
		return nil, err
	}
	return dice.NewRollResult([]int{roll1, roll2}, 1, max(roll1, roll2), sides, bonus), nil
}

// RollWithDisadvantage implements dice.Roller.RollWithDisadvantage
func (m *ManualMockRoller) RollWithDisadvantage(sides, bonus int) (*dice.RollResult, error) {
	roll1, roll2, err := m.pair(sides)
	if err != nil {
		return nil, err
	}
	return dice.NewRollResult([]int{roll1, roll2}, 1, min(roll1, roll2), sides, bonus), nil
}

func (m *ManualMockRoller) pair(sides int) (int, int, error) {
	roll1, err := m.next(sides)
	if err != nil {
		return 0, 0, err
	}
	roll2, err := m.next(sides)
	if err != nil {
		return 0, 0, err
	}
	return roll1, roll2, nil
}
