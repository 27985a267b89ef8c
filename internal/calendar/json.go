package calendar

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/miradorstack/mirador-scheduler/internal/models"
)

// DecodeJSON reads a JSON array of participant calendars.
func DecodeJSON(r io.Reader, fallback *time.Location) ([]models.Participant, Stats, error) {
	var docs []ParticipantDoc
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, Stats{}, fmt.Errorf("decode calendars: %w", err)
	}
	return Convert(docs, fallback)
}

// LoadJSONFile is DecodeJSON on a file.
func LoadJSONFile(path string, fallback *time.Location) ([]models.Participant, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer f.Close()
	return DecodeJSON(f, fallback)
}

// Convert turns documents into participants, preserving order.
func Convert(docs []ParticipantDoc, fallback *time.Location) ([]models.Participant, Stats, error) {
	var total Stats
	participants := make([]models.Participant, 0, len(docs))
	for _, doc := range docs {
		p, stats, err := doc.ToParticipant(fallback)
		total.Add(stats)
		if err != nil {
			return nil, total, err
		}
		participants = append(participants, p)
	}
	return participants, total, nil
}
