package label

import (
	"errors"
	"fmt"
	"log"
	"os"

	"geometree/internal/field"

	"github.com/rs/xid"
)

// ErrUnknownIdea is returned for ids the manager does not hold.
var ErrUnknownIdea = errors.New("label: unknown idea")

// Points is the subset of the evaluator the manager mutates.
type Points interface {
	CreatePoint(pos field.Vec3, radius float64) (int, error)
	UpdatePoint(i int, pos field.Vec3) error
	SetRadius(i int, r float64) error
}

// ElevationSource answers host elevation queries asynchronously.
type ElevationSource interface {
	ElevationAtFunc(pos field.Vec3, fn func(field.Result))
}

// Config holds the label tunables.
type Config struct {
	DefaultText   string
	DefaultRadius float64
	MinRadius     float64
	// WheelFactor converts wheel deltas into radius changes.
	WheelFactor float64

	MoveHeightScale   float64
	RecalcHeightScale float64
	HeightOffset      float64
}

// DefaultConfig returns the standard label behaviour.
func DefaultConfig() Config {
	return Config{
		DefaultText:       "New Point",
		DefaultRadius:     0.25,
		MinRadius:         0.01,
		WheelFactor:       0.001,
		MoveHeightScale:   0.15,
		RecalcHeightScale: 0.30,
		HeightOffset:      0.15,
	}
}

type resultKind int

const (
	fromMove resultKind = iota
	fromRecalc
)

type elevationResult struct {
	id    xid.ID
	kind  resultKind
	value float64
}

// Manager owns the ideas of a scene. All methods except the query callbacks
// run on the host goroutine; elevation results are queued by the callbacks
// and applied in arrival order by Update, so the last result to arrive wins.
type Manager struct {
	cfg     Config
	points  Points
	queries ElevationSource

	ideas   []*Idea
	byID    map[xid.ID]*Idea
	results chan elevationResult

	logger *log.Logger
}

// NewManager builds a manager over the given points and query source.
func NewManager(cfg Config, points Points, queries ElevationSource) *Manager {
	return &Manager{
		cfg:     cfg,
		points:  points,
		queries: queries,
		byID:    map[xid.ID]*Idea{},
		results: make(chan elevationResult, 1024),
		logger:  log.New(os.Stderr, "(label) > ", log.LstdFlags),
	}
}

// SetLogger replaces the manager logger.
func (m *Manager) SetLogger(l *log.Logger) {
	if l != nil {
		m.logger = l
	}
}

// Config returns the manager configuration.
func (m *Manager) Config() Config { return m.cfg }

// Len returns the number of ideas.
func (m *Manager) Len() int { return len(m.ideas) }

// AddIdea creates a control point at pos with the default radius and wraps it
// in an idea that starts in editing mode.
func (m *Manager) AddIdea(text string, pos field.Vec3) (Idea, error) {
	if text == "" {
		text = m.cfg.DefaultText
	}
	pos.Z = 0
	idx, err := m.points.CreatePoint(pos, m.cfg.DefaultRadius)
	if err != nil {
		return Idea{}, fmt.Errorf("add idea: %w", err)
	}
	idea := &Idea{
		ID:       xid.New(),
		Index:    idx,
		Text:     text,
		Position: pos,
		Radius:   m.cfg.DefaultRadius,
		Height:   m.cfg.HeightOffset,
		Editing:  true,
	}
	m.ideas = append(m.ideas, idea)
	m.byID[idea.ID] = idea
	m.query(idea, fromMove)
	return *idea, nil
}

// Get returns a copy of the idea with the given id.
func (m *Manager) Get(id xid.ID) (Idea, bool) {
	idea, ok := m.byID[id]
	if !ok {
		return Idea{}, false
	}
	return *idea, true
}

// Ideas returns copies of every idea in creation order.
func (m *Manager) Ideas() []Idea {
	out := make([]Idea, len(m.ideas))
	for i, idea := range m.ideas {
		out[i] = *idea
	}
	return out
}

// MoveTo moves the idea and its point, then asks for the new elevation.
func (m *Manager) MoveTo(id xid.ID, pos field.Vec3) error {
	idea, err := m.lookup(id)
	if err != nil {
		return err
	}
	pos.Z = 0
	if err := m.points.UpdatePoint(idea.Index, pos); err != nil {
		return fmt.Errorf("move idea %s: %w", id, err)
	}
	idea.Position = pos
	m.query(idea, fromMove)
	return nil
}

// SetRadius sets the idea radius, clamped to the configured minimum.
func (m *Manager) SetRadius(id xid.ID, r float64) error {
	idea, err := m.lookup(id)
	if err != nil {
		return err
	}
	if r < m.cfg.MinRadius {
		r = m.cfg.MinRadius
	}
	if err := m.points.SetRadius(idea.Index, r); err != nil {
		return fmt.Errorf("resize idea %s: %w", id, err)
	}
	idea.Radius = r
	return nil
}

// AdjustRadius applies a wheel delta: scrolling down shrinks the radius.
func (m *Manager) AdjustRadius(id xid.ID, wheelDelta float64) error {
	idea, err := m.lookup(id)
	if err != nil {
		return err
	}
	return m.SetRadius(id, idea.Radius-wheelDelta*m.cfg.WheelFactor)
}

// Rename replaces the idea text.
func (m *Manager) Rename(id xid.ID, text string) error {
	idea, err := m.lookup(id)
	if err != nil {
		return err
	}
	idea.Text = text
	return nil
}

// Finish leaves editing mode and re-commits the idea position.
func (m *Manager) Finish(id xid.ID) error {
	idea, err := m.lookup(id)
	if err != nil {
		return err
	}
	idea.Editing = false
	if idea.Text == "" {
		idea.Text = m.cfg.DefaultText
	}
	return m.points.UpdatePoint(idea.Index, idea.Position)
}

// Update applies every elevation result that has arrived, refreshes
// visibility and opacity for cam and queues a fresh elevation query per idea.
func (m *Manager) Update(cam Camera) {
	for {
		select {
		case res := <-m.results:
			m.apply(res, cam)
		default:
			for _, idea := range m.ideas {
				m.query(idea, fromRecalc)
			}
			return
		}
	}
}

// Reset forgets every idea. The caller owns clearing the points.
func (m *Manager) Reset() {
	m.ideas = nil
	m.byID = map[xid.ID]*Idea{}
	for {
		select {
		case <-m.results:
		default:
			return
		}
	}
}

// Truncate forgets ideas whose point index is n or above, after the points
// were cut with SetActiveLength.
func (m *Manager) Truncate(n int) {
	kept := m.ideas[:0]
	for _, idea := range m.ideas {
		if idea.Index < n {
			kept = append(kept, idea)
			continue
		}
		delete(m.byID, idea.ID)
	}
	clear(m.ideas[len(kept):])
	m.ideas = kept
}

// Restore replaces the idea list with ideas whose points already exist.
func (m *Manager) Restore(ideas []Idea) {
	m.Reset()
	for _, idea := range ideas {
		idea := idea
		if idea.ID.IsNil() {
			idea.ID = xid.New()
		}
		idea.Editing = false
		m.ideas = append(m.ideas, &idea)
		m.byID[idea.ID] = &idea
		m.query(&idea, fromMove)
	}
}

func (m *Manager) apply(res elevationResult, cam Camera) {
	idea, ok := m.byID[res.id]
	if !ok {
		return
	}
	idea.Elevation = res.value
	switch res.kind {
	case fromMove:
		idea.Height = lift(res.value, m.cfg.MoveHeightScale, m.cfg.HeightOffset)
	case fromRecalc:
		idea.Height = lift(res.value, m.cfg.RecalcHeightScale, m.cfg.HeightOffset)
		idea.Visible = visible(res.value, cam.Scale)
		idea.Opacity = opacity(cam.Position.Dist(idea.Anchor()), cam.Scale)
	}
}

func (m *Manager) query(idea *Idea, kind resultKind) {
	if m.queries == nil {
		return
	}
	id := idea.ID
	m.queries.ElevationAtFunc(idea.Position, func(r field.Result) {
		if r.Err != nil {
			return
		}
		select {
		case m.results <- elevationResult{id: id, kind: kind, value: r.Value}:
		default:
		}
	})
}

func (m *Manager) lookup(id xid.ID) (*Idea, error) {
	idea, ok := m.byID[id]
	if !ok {
		m.logger.Printf("ignored: %v %s", ErrUnknownIdea, id)
		return nil, fmt.Errorf("%w: %s", ErrUnknownIdea, id)
	}
	return idea, nil
}
