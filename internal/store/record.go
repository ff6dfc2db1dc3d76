package store

import (
	"fmt"

	"geometree/internal/field"
)

// PointRecords captures the active points of ev in index order. Empty slots
// inside the active length are recorded with a zero radius.
func PointRecords(ev *field.Evaluator) []PointRecord {
	points := ev.Points()
	out := make([]PointRecord, len(points))
	for i, p := range points {
		out[i] = PointRecord{Index: i, Position: p.Position, Radius: p.Radius, Color: p.Color}
	}
	return out
}

// RestorePoints writes points into a cleared evaluator, each into its
// recorded slot. Records without a radius are empty slots: they are skipped
// and the active length grows over them, so a recorded scene restores to the
// same length. Indices must be increasing.
func RestorePoints(ev *field.Evaluator, points []PointRecord) error {
	if ev.Len() != 0 {
		return fmt.Errorf("store: restore into an evaluator holding %d points", ev.Len())
	}
	length := 0
	for _, p := range points {
		if p.Index < length {
			return fmt.Errorf("restore point %d: slot already used", p.Index)
		}
		length = p.Index + 1
		if p.Radius <= 0 {
			continue
		}
		if p.Index > ev.Len() {
			if err := ev.SetActiveLength(p.Index); err != nil {
				return fmt.Errorf("restore point %d: %w", p.Index, err)
			}
		}
		if _, err := ev.CreateColoredPoint(p.Position, p.Radius, p.Color); err != nil {
			return fmt.Errorf("restore point %d: %w", p.Index, err)
		}
	}
	if length > ev.Len() {
		if err := ev.SetActiveLength(length); err != nil {
			return fmt.Errorf("restore length %d: %w", length, err)
		}
	}
	return nil
}
