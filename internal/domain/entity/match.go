package entity

// Round tags assigned by the matchmaker. A bye match is tagged distinctly
// so brackets can render the automatic advancement.
const (
	RoundQualifiers  = "Classificatórias"
	RoundBye         = "Avanço Automático"
	DefaultMat       = "Principal"
	MatchIDPrefix    = "LUTA-"
	ByeMatchIDSuffix = "-BYE"
)

// Match is one bracket entry: a pair of athletes, or a single athlete on a
// bye. Identity lives in LutaID; the queue never assigns its own IDs.
type Match struct {
	LutaID   string    `json:"luta_id"`
	Athletes []Athlete `json:"athletes"`
	Round    string    `json:"round"`
}

// IsBye reports whether the match is an automatic advancement for an
// unpaired athlete.
func (m *Match) IsBye() bool {
	return m.Round == RoundBye
}

// ScheduledMatch is a Match with the slot and mat assigned by the scheduler.
type ScheduledMatch struct {
	Match
	ScheduledAt string `json:"scheduled_at"`
	Mat         string `json:"mat"`
}
