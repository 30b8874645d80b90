package entities

import "strings"

const neutralAbilityScore = 10

// CharacterSheet is the subset of a campaign character the rules need.
// It is owned by the campaign and only read here.
type CharacterSheet struct {
	Name             string          `json:"name"`
	Class            string          `json:"class"`
	Race             string          `json:"race"`
	Level            int             `json:"level"`
	Abilities        map[Ability]int `json:"abilities"`
	ProficientSkills []string        `json:"proficient_skills"`
	HitPoints        int             `json:"hit_points"`
	MaxHitPoints     int             `json:"max_hit_points"`
	Equipment        []string        `json:"equipment,omitempty"`
}

// AbilityModifier returns floor((score-10)/2)
func AbilityModifier(score int) int {
	diff := score - neutralAbilityScore
	if diff < 0 {
		return -((-diff + 1) / 2)
	}
	return diff / 2
}

// ProficiencyBonusForLevel returns 2 + floor((level-1)/4), treating levels below 1 as 1
func ProficiencyBonusForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return 2 + (level-1)/4
}

// Score returns the ability score, or the neutral 10 when the sheet has none
func (c *CharacterSheet) Score(a Ability) int {
	if c == nil || c.Abilities == nil {
		return neutralAbilityScore
	}
	score, ok := c.Abilities[a]
	if !ok {
		return neutralAbilityScore
	}
	return score
}

// Modifier returns the ability modifier for the given ability
func (c *CharacterSheet) Modifier(a Ability) int {
	return AbilityModifier(c.Score(a))
}

// ProficiencyBonus returns the proficiency bonus for the sheet's level
func (c *CharacterSheet) ProficiencyBonus() int {
	if c == nil {
		return ProficiencyBonusForLevel(1)
	}
	return ProficiencyBonusForLevel(c.Level)
}

// HasSkill reports whether the character is proficient in the skill
func (c *CharacterSheet) HasSkill(skill string) bool {
	if c == nil || skill == "" {
		return false
	}
	want := NormalizeSkill(skill)
	for _, s := range c.ProficientSkills {
		if NormalizeSkill(s) == want {
			return true
		}
	}
	return false
}

// NormalizeSkill lower-cases a skill name and joins words with underscores,
// dropping a leading "skill" prefix: "Sleight-of-Hand" and "skill-sleight-of-hand"
// both become "sleight_of_hand".
func NormalizeSkill(skill string) string {
	s := strings.ToLower(strings.TrimSpace(skill))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	s = strings.TrimPrefix(s, "skill_")
	return strings.Trim(s, "_")
}
