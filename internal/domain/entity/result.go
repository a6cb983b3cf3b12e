package entity

// Default values applied when a result is submitted without them.
const (
	DefaultMethod   = "Pontos"
	DefaultDuration = "00:00"
)

// Result records the outcome of one match.
type Result struct {
	LutaID     string `json:"luta_id"`
	Winner     string `json:"winner"`
	Method     string `json:"method"`
	Duration   string `json:"duration"`
	RecordedAt string `json:"recorded_at"`
}

// Validate checks the required result fields and returns a
// MissingFieldsError listing every empty one.
func (r *Result) Validate() error {
	var missing []string
	if r.LutaID == "" {
		missing = append(missing, "luta_id")
	}
	if r.Winner == "" {
		missing = append(missing, "winner")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// ApplyDefaults fills optional fields that were left empty.
func (r *Result) ApplyDefaults() {
	if r.Method == "" {
		r.Method = DefaultMethod
	}
	if r.Duration == "" {
		r.Duration = DefaultDuration
	}
}
