package entities

import "strings"

// Ability is one of the six ability scores
type Ability string

// Abilities lists every ability in sheet order
var Abilities = []Ability{AbilityStrength, AbilityDexterity, AbilityConstitution, AbilityIntelligence, AbilityWisdom, AbilityCharisma}

const (
	AbilityNone         Ability = ""
	AbilityStrength     Ability = "strength"
	AbilityDexterity    Ability = "dexterity"
	AbilityConstitution Ability = "constitution"
	AbilityIntelligence Ability = "intelligence"
	AbilityWisdom       Ability = "wisdom"
	AbilityCharisma     Ability = "charisma"
)

var abilityAliases = map[string]Ability{
	"str": AbilityStrength,
	"dex": AbilityDexterity,
	"con": AbilityConstitution,
	"int": AbilityIntelligence,
	"wis": AbilityWisdom,
	"cha": AbilityCharisma,
}

// ParseAbility accepts full names and three letter abbreviations in any case
func ParseAbility(input string) (Ability, bool) {
	key := strings.ToLower(strings.TrimSpace(input))
	for _, a := range Abilities {
		if string(a) == key {
			return a, true
		}
	}
	if a, ok := abilityAliases[key]; ok {
		return a, true
	}
	return AbilityNone, false
}

// Short returns the three letter abbreviation
func (a Ability) Short() string {
	if len(a) < 3 {
		return strings.ToUpper(string(a))
	}
	return strings.ToUpper(string(a[:3]))
}
