package space

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a point-in-time capture of a space's observable state.
type Snapshot struct {
	SnapshotID  string         `json:"snapshot_id"`
	SpaceID     string         `json:"space_id"`
	SimTime     time.Duration  `json:"sim_time"`
	Metabolites Stock          `json:"metabolites"`
	Enzymes     map[string]int `json:"enzymes"`
}

// TakeSnapshot captures the driven space's stock and enzyme levels at
// the runner's current virtual time.
func TakeSnapshot(r *Runner) Snapshot {
	s := r.Space()
	return Snapshot{
		SnapshotID:  uuid.NewString(),
		SpaceID:     s.ID(),
		SimTime:     r.Clock(),
		Metabolites: s.Stock(),
		Enzymes:     s.EnzymeLevels(),
	}
}

// ValidateSnapshot performs validation checks on a snapshot: the space
// ID must be set and no amount may be negative.
func ValidateSnapshot(snapshot Snapshot) error {
	if snapshot.SpaceID == "" {
		return fmt.Errorf("snapshot has empty space ID")
	}
	if snapshot.SimTime < 0 {
		return fmt.Errorf("snapshot has negative sim time %v", snapshot.SimTime)
	}
	for name, amount := range snapshot.Metabolites {
		if amount < 0 {
			return fmt.Errorf("snapshot metabolite %s has negative amount %d", name, amount)
		}
	}
	for id, amount := range snapshot.Enzymes {
		if amount < 0 {
			return fmt.Errorf("snapshot enzyme %s has negative amount %d", id, amount)
		}
	}
	return nil
}

// EncodeSnapshotJSON encodes a snapshot to JSON format.
func EncodeSnapshotJSON(snapshot Snapshot) ([]byte, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshotJSON decodes a snapshot from JSON format.
func DecodeSnapshotJSON(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}
