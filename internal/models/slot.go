package models

import "time"

// Reason prefixes used by the scorer so UIs can style each line.
const (
	ReasonBonus    = "[+] "
	ReasonPenalty  = "[-] "
	ReasonAdvisory = "[i] "
)

// CandidateSlot is a scored meeting position. Slots are independent values;
// no two share a Reasons backing array.
type CandidateSlot struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Score   float64   `json:"score"`
	Reasons []string  `json:"reasons"`
}

// Interval returns the slot bounds as a TimeInterval.
func (s CandidateSlot) Interval() TimeInterval {
	return TimeInterval{start: s.Start.UTC(), end: s.End.UTC()}
}

// Clone returns a deep copy.
func (s CandidateSlot) Clone() CandidateSlot {
	out := s
	out.Reasons = append([]string(nil), s.Reasons...)
	return out
}
