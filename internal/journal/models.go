package journal

import "time"

// Outcome is how a capture cycle ended.
type Outcome string

const (
	OutcomeCommitted      Outcome = "committed"
	OutcomeCommitFailed   Outcome = "commit_failed"
	OutcomeClassifyFailed Outcome = "classify_failed"
	OutcomeDiscarded      Outcome = "discarded"
)

// Outcomes lists every outcome in display order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeCommitted, OutcomeCommitFailed, OutcomeClassifyFailed, OutcomeDiscarded}
}

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	for _, known := range Outcomes() {
		if o == known {
			return true
		}
	}
	return false
}

// Entry is one journal row.
type Entry struct {
	ID            int64     `json:"id"`
	CaptureID     string    `json:"capture_id"`
	Outcome       Outcome   `json:"outcome"`
	ProposedLabel string    `json:"proposed_label,omitempty"`
	FinalLabel    string    `json:"final_label,omitempty"`
	Room          string    `json:"room,omitempty"`
	Drawer        string    `json:"drawer,omitempty"`
	Message       string    `json:"message,omitempty"`
	ErrorKind     string    `json:"error_kind,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Location renders "room/drawer", or "" when unknown.
func (e Entry) Location() string {
	if e.Room == "" && e.Drawer == "" {
		return ""
	}
	return e.Room + "/" + e.Drawer
}
