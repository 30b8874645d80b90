package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	dnderr "github.com/KirkDiggler/dnd-narrator/internal/errors"
)

var expressionPattern = regexp.MustCompile(`^(\d+)d(\d+)([+-]\d+)?$`)

// Expression is a parsed "NdS+M" dice expression
type Expression struct {
	Count    int
	Sides    int
	Modifier int
}

// ParseExpression parses strings like "1d20", "2d6+3" or "3d8-1"
func ParseExpression(input string) (*Expression, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(input), " ", ""))
	matches := expressionPattern.FindStringSubmatch(normalized)
	if matches == nil {
		return nil, dnderr.InvalidExpressionf("invalid dice expression %q", input)
	}

	count, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil, dnderr.InvalidExpressionf("invalid dice count in %q", input)
	}
	sides, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, dnderr.InvalidExpressionf("invalid dice size in %q", input)
	}

	modifier := 0
	if matches[3] != "" {
		modifier, err = strconv.Atoi(matches[3])
		if err != nil {
			return nil, dnderr.InvalidExpressionf("invalid modifier in %q", input)
		}
	}

	if err := validateDice(count, sides); err != nil {
		return nil, err
	}

	return &Expression{Count: count, Sides: sides, Modifier: modifier}, nil
}

func (e *Expression) String() string {
	if e.Modifier == 0 {
		return fmt.Sprintf("%dd%d", e.Count, e.Sides)
	}
	return fmt.Sprintf("%dd%d%+d", e.Count, e.Sides, e.Modifier)
}

// RollExpression parses and rolls a dice expression
func RollExpression(r Roller, input string) (*RollResult, error) {
	expr, err := ParseExpression(input)
	if err != nil {
		return nil, err
	}
	return r.Roll(expr.Count, expr.Sides, expr.Modifier)
}
