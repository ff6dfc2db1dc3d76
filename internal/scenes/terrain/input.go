package terrain

import (
	"unicode/utf8"

	"github.com/rs/xid"
)

// PointerDown starts placing a new idea under the pointer. While an idea is
// being placed further presses are ignored.
func (s *Scene) PointerDown(x, y float64) {
	if !s.creating.IsNil() {
		return
	}
	idea, err := s.ideas.AddIdea("", s.Viewport().At(x, y))
	if err != nil {
		s.logger.Printf("add idea: %v", err)
		return
	}
	s.creating = idea.ID
}

// PointerMove drags the idea being placed.
func (s *Scene) PointerMove(x, y float64) {
	if s.creating.IsNil() {
		return
	}
	_ = s.ideas.MoveTo(s.creating, s.Viewport().At(x, y))
}

// PointerUp is a no-op; placement ends with Enter.
func (s *Scene) PointerUp(x, y float64) {}

// Wheel resizes the idea being placed, or zooms when nothing is being
// placed. Positive dy scrolls down: it shrinks the radius and zooms out.
func (s *Scene) Wheel(dy float64) {
	if !s.creating.IsNil() {
		_ = s.ideas.AdjustRadius(s.creating, dy)
		return
	}
	s.setZoom(s.zoom * (1 - dy*s.cfg.ZoomFactor))
}

// TypeText appends runes to the label of the idea being placed.
func (s *Scene) TypeText(runes []rune) {
	if s.creating.IsNil() || len(runes) == 0 {
		return
	}
	idea, ok := s.ideas.Get(s.creating)
	if !ok {
		return
	}
	text := idea.Text
	if text == s.cfg.Label.DefaultText {
		text = ""
	}
	_ = s.ideas.Rename(s.creating, text+string(runes))
}

// Backspace removes the last rune of the label being edited.
func (s *Scene) Backspace() {
	if s.creating.IsNil() {
		return
	}
	idea, ok := s.ideas.Get(s.creating)
	if !ok || idea.Text == "" {
		return
	}
	_, size := utf8.DecodeLastRuneInString(idea.Text)
	_ = s.ideas.Rename(s.creating, idea.Text[:len(idea.Text)-size])
}

// Enter finishes placing the current idea.
func (s *Scene) Enter() {
	if s.creating.IsNil() {
		return
	}
	if err := s.ideas.Finish(s.creating); err != nil {
		s.logger.Printf("finish idea: %v", err)
	}
	s.creating = xid.NilID()
}

// Creating reports whether an idea is being placed.
func (s *Scene) Creating() bool { return !s.creating.IsNil() }

func (s *Scene) setZoom(z float64) {
	if z < s.cfg.MinZoom {
		z = s.cfg.MinZoom
	}
	if z > s.cfg.MaxZoom {
		z = s.cfg.MaxZoom
	}
	s.zoom = z
}
