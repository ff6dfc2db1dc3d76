package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"geometree/internal/field"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// ErrNotFound is returned when loading a scene that was never saved.
var ErrNotFound = errors.New("store: scene not found")

// PointRecord is one persisted control point.
type PointRecord struct {
	Index    int
	Position field.Vec3
	Radius   float64
	Color    field.Color
	// IdeaID and Text are set for points that carry a label.
	IdeaID string
	Text   string
}

// SceneRecord is a persisted scene: its evaluator state and points in index
// order.
type SceneRecord struct {
	Name     string
	Kind     string
	Capacity int
	Time     float64
	SavedAt  time.Time
	Points   []PointRecord
}

// Store persists scenes in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database using the modernc.org/sqlite driver and
// ensures the schema. Use ":memory:" for a throwaway database.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)
	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle and ensures the schema.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("store: db is nil")
	}
	if err := EnsureSchema(context.Background(), db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// SaveScene replaces any previous save under rec.Name.
func (s *Store) SaveScene(ctx context.Context, rec SceneRecord) error {
	if rec.Name == "" {
		return fmt.Errorf("store: scene name must be set")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE scene = ?`, rec.Name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO scenes(name, kind, capacity, time, saved_at) VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET kind = excluded.kind, capacity = excluded.capacity,
		 time = excluded.time, saved_at = excluded.saved_at`,
		rec.Name, rec.Kind, rec.Capacity, rec.Time, rec.SavedAt.UnixNano()); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO points(scene, idx, x, y, z, radius, color, idea_id, label) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range rec.Points {
		if _, err := stmt.ExecContext(ctx, rec.Name, p.Index,
			p.Position.X, p.Position.Y, p.Position.Z, p.Radius,
			encodeColor(p.Color), p.IdeaID, p.Text); err != nil {
			return fmt.Errorf("store: point %d: %w", p.Index, err)
		}
	}
	return tx.Commit()
}

// LoadScene returns the scene saved under name with points in index order.
func (s *Store) LoadScene(ctx context.Context, name string) (SceneRecord, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rec := SceneRecord{Name: name}
	var savedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT kind, capacity, time, saved_at FROM scenes WHERE name = ?`, name).
		Scan(&rec.Kind, &rec.Capacity, &rec.Time, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SceneRecord{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return SceneRecord{}, err
	}
	rec.SavedAt = time.Unix(0, savedAt)

	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, x, y, z, radius, color, idea_id, label FROM points WHERE scene = ? ORDER BY idx`, name)
	if err != nil {
		return SceneRecord{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p      PointRecord
			color  []byte
			ideaID sql.NullString
			text   sql.NullString
		)
		if err := rows.Scan(&p.Index, &p.Position.X, &p.Position.Y, &p.Position.Z, &p.Radius, &color, &ideaID, &text); err != nil {
			return SceneRecord{}, err
		}
		if p.Color, err = decodeColor(color); err != nil {
			return SceneRecord{}, err
		}
		p.IdeaID, p.Text = ideaID.String, text.String
		rec.Points = append(rec.Points, p)
	}
	if err := rows.Err(); err != nil {
		return SceneRecord{}, err
	}
	return rec, nil
}

// SceneNames lists saved scenes alphabetically.
func (s *Store) SceneNames(ctx context.Context) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM scenes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// DeleteScene removes a saved scene and its points.
func (s *Store) DeleteScene(ctx context.Context, name string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE scene = ?`, name); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM scenes WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return tx.Commit()
}
