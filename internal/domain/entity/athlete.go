// Package entity defines the core domain model for the tournament backend:
// athletes, matches, recorded results, and the errors they can produce.
package entity

// DefaultTeam is assigned when an athlete registers without a team.
const DefaultTeam = "Independente"

// Athlete represents a registered competitor.
type Athlete struct {
	Name     string `json:"name"`
	Belt     string `json:"belt"`
	Category string `json:"category"`
	Team     string `json:"team"`
}

// Validate checks the required athlete fields and returns a
// MissingFieldsError listing every empty one.
func (a *Athlete) Validate() error {
	var missing []string
	if a.Name == "" {
		missing = append(missing, "name")
	}
	if a.Belt == "" {
		missing = append(missing, "belt")
	}
	if a.Category == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// ApplyDefaults fills optional fields that were left empty.
func (a *Athlete) ApplyDefaults() {
	if a.Team == "" {
		a.Team = DefaultTeam
	}
}
