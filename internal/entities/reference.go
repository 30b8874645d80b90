package entities

// ReferenceEntry is one item of rules reference data, such as a skill or a class
type ReferenceEntry struct {
	Category    string  `json:"category"`
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Ability     Ability `json:"ability,omitempty"` // governing ability for skills
	Value       int     `json:"value,omitempty"`   // numeric payload, e.g. a DC tier
}
