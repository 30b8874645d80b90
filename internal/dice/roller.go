package dice

//go:generate mockgen -destination=mock/mock_roller.go -package=mockdice -source=roller.go

// Roller provides an interface for rolling dice so checks can be resolved
// against predetermined rolls in tests
type Roller interface {
	// Roll rolls a number of dice with the given sides and adds a bonus
	Roll(count, sides, bonus int) (*RollResult, error)

	// RollWithAdvantage rolls twice and keeps the higher die
	RollWithAdvantage(sides, bonus int) (*RollResult, error)

	// RollWithDisadvantage rolls twice and keeps the lower die
	RollWithDisadvantage(sides, bonus int) (*RollResult, error)
}

// RollResult is the outcome of a single Roller call
type RollResult struct {
	Total    int   // RawTotal + Bonus
	Rolls    []int // every die rolled, including the discarded one on advantage
	Bonus    int
	Count    int
	Sides    int
	RawTotal int  // sum of kept dice
	IsCrit   bool // natural 20 on a single d20
	IsFumble bool // natural 1 on a single d20
}

// NewRollResult builds a result from the rolled dice and the sum that was kept.
// Count is the number of dice that contribute to the total.
func NewRollResult(rolls []int, count, kept, sides, bonus int) *RollResult {
	result := &RollResult{
		Total:    kept + bonus,
		Rolls:    rolls,
		Bonus:    bonus,
		Count:    count,
		Sides:    sides,
		RawTotal: kept,
	}

	// Check for crit/fumble on d20
	if count == 1 && sides == 20 {
		result.IsCrit = kept == 20
		result.IsFumble = kept == 1
	}

	return result
}

// Natural returns the kept die of a single-die roll
func (r *RollResult) Natural() int {
	return r.RawTotal
}
