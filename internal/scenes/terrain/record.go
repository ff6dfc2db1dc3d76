package terrain

import (
	"fmt"

	"geometree/internal/field"
	"geometree/internal/label"
	"geometree/internal/store"

	"github.com/rs/xid"
)

// SetActiveLength cuts or grows the point list and drops ideas whose points
// were cut.
func (s *Scene) SetActiveLength(n int) error {
	if err := s.ev.SetActiveLength(n); err != nil {
		return err
	}
	s.ideas.Truncate(n)
	if _, ok := s.ideas.Get(s.creating); !ok {
		s.creating = xid.NilID()
	}
	return nil
}

// Record captures the scene for persistence.
func (s *Scene) Record() store.SceneRecord {
	rec := store.SceneRecord{
		Kind:     Name,
		Capacity: s.ev.Cap(),
		Time:     s.ev.Time(),
	}
	byIndex := map[int]label.Idea{}
	for _, idea := range s.ideas.Ideas() {
		byIndex[idea.Index] = idea
	}
	rec.Points = store.PointRecords(s.ev)
	for i := range rec.Points {
		if idea, ok := byIndex[i]; ok {
			rec.Points[i].IdeaID = idea.ID.String()
			rec.Points[i].Text = idea.Text
		}
	}
	return rec
}

// Restore replaces the scene contents with rec. Points must have increasing
// indices and fit the evaluator capacity; on error the scene is left empty.
// Slots recorded without a radius come back as empty slots.
func (s *Scene) Restore(rec store.SceneRecord) error {
	if rec.Kind != "" && rec.Kind != Name {
		return fmt.Errorf("terrain: cannot restore a %q scene", rec.Kind)
	}
	if len(rec.Points) > s.ev.Cap() {
		return fmt.Errorf("%w: %d points saved, capacity %d", field.ErrCapacityExceeded, len(rec.Points), s.ev.Cap())
	}
	s.Reset(0)
	if err := store.RestorePoints(s.ev, rec.Points); err != nil {
		s.Reset(0)
		return err
	}
	var ideas []label.Idea
	for _, p := range rec.Points {
		if p.Radius <= 0 || (p.IdeaID == "" && p.Text == "") {
			continue
		}
		id, err := xid.FromString(p.IdeaID)
		if err != nil {
			id = xid.New()
		}
		ideas = append(ideas, label.Idea{
			ID:       id,
			Index:    p.Index,
			Text:     p.Text,
			Position: p.Position,
			Radius:   p.Radius,
			Height:   s.cfg.Label.HeightOffset,
		})
	}
	s.ev.SetTime(rec.Time)
	s.ideas.Restore(ideas)
	s.render()
	return nil
}
