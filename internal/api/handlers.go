package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"strconv"

	"geometree/internal/core"
	"geometree/internal/field"
	"geometree/internal/store"

	"github.com/gorilla/mux"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

type message struct {
	Msg string `json:"msg"`
}

type colorJSON struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

type pointJSON struct {
	Index  int       `json:"index"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Z      float64   `json:"z"`
	Radius float64   `json:"radius"`
	Color  colorJSON `json:"color"`
}

type createPointRequest struct {
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	Z      float64    `json:"z"`
	Radius float64    `json:"radius"`
	Color  *colorJSON `json:"color,omitempty"`
}

type positionRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type radiusRequest struct {
	Radius *float64 `json:"radius,omitempty"`
	Delta  *float64 `json:"delta,omitempty"`
}

type lengthRequest struct {
	Length *int `json:"length"`
}

func toPointJSON(i int, p field.ControlPoint) pointJSON {
	return pointJSON{
		Index:  i,
		X:      p.Position.X,
		Y:      p.Position.Y,
		Z:      p.Position.Z,
		Radius: p.Radius,
		Color:  colorJSON{p.Color.R, p.Color.G, p.Color.B},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, message{Msg: msg})
}

// writeErr maps evaluator and store errors onto status codes.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, field.ErrCapacityExceeded):
		writeMsg(w, http.StatusConflict, err.Error())
	case errors.Is(err, field.ErrInvalidRadius):
		writeMsg(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, field.ErrIndexOutOfRange), errors.Is(err, store.ErrNotFound):
		writeMsg(w, http.StatusNotFound, err.Error())
	default:
		writeMsg(w, http.StatusInternalServerError, err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return false
	}
	return true
}

func pathIndex(r *http.Request) int {
	i, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		return -1
	}
	return i
}

func queryPoint(w http.ResponseWriter, r *http.Request) (field.Vec3, bool) {
	var q field.Vec3
	for _, c := range []struct {
		key string
		dst *float64
	}{{"x", &q.X}, {"y", &q.Y}, {"z", &q.Z}} {
		v := r.URL.Query().Get(c.key)
		if v == "" {
			if c.key == "z" {
				continue
			}
			writeMsg(w, http.StatusBadRequest, "missing query parameter "+c.key)
			return q, false
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeMsg(w, http.StatusBadRequest, "invalid query parameter "+c.key)
			return q, false
		}
		*c.dst = f
	}
	return q, true
}

// mutate runs fn on the host loop and publishes the result.
func (s *Server) mutate(r *http.Request, fn func() error) error {
	var ferr error
	if err := s.loop.Do(r.Context(), func(core.Scene) {
		ferr = fn()
		s.ev.Commit()
	}); err != nil {
		return err
	}
	return ferr
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.ev.Latest()
	writeJSON(w, http.StatusOK, struct {
		Scene    string  `json:"scene"`
		Points   int     `json:"points"`
		Capacity int     `json:"capacity"`
		Version  uint64  `json:"version"`
		Time     float64 `json:"time"`
	}{s.scene.Name(), snap.Len(), snap.Cap(), snap.Version, snap.Time})
}

func (s *Server) handleListPoints(w http.ResponseWriter, r *http.Request) {
	points := s.ev.Latest().Points()
	out := make([]pointJSON, len(points))
	for i, p := range points {
		out[i] = toPointJSON(i, p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPoint(w http.ResponseWriter, r *http.Request) {
	i := pathIndex(r)
	points := s.ev.Latest().Points()
	if i < 0 || i >= len(points) {
		writeMsg(w, http.StatusNotFound, "no point "+mux.Vars(r)["index"])
		return
	}
	writeJSON(w, http.StatusOK, toPointJSON(i, points[i]))
}

func (s *Server) handleCreatePoint(w http.ResponseWriter, r *http.Request) {
	var req createPointRequest
	if !decode(w, r, &req) {
		return
	}
	pos := field.Vec3{X: req.X, Y: req.Y, Z: req.Z}
	idx := -1
	err := s.mutate(r, func() (err error) {
		if req.Color != nil {
			idx, err = s.ev.CreateColoredPoint(pos, req.Radius, field.Color{R: req.Color.R, G: req.Color.G, B: req.Color.B})
		} else {
			idx, err = s.ev.CreatePoint(pos, req.Radius)
		}
		return err
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Index int `json:"index"`
	}{idx})
}

func (s *Server) handleUpdatePoint(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if !decode(w, r, &req) {
		return
	}
	i := pathIndex(r)
	var p field.ControlPoint
	err := s.mutate(r, func() error {
		if err := s.ev.UpdatePoint(i, field.Vec3{X: req.X, Y: req.Y, Z: req.Z}); err != nil {
			return err
		}
		p, _ = s.ev.Point(i)
		return nil
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPointJSON(i, p))
}

func (s *Server) handleRadius(w http.ResponseWriter, r *http.Request) {
	var req radiusRequest
	if !decode(w, r, &req) {
		return
	}
	if (req.Radius == nil) == (req.Delta == nil) {
		writeMsg(w, http.StatusBadRequest, "set exactly one of radius or delta")
		return
	}
	i := pathIndex(r)
	var radius float64
	err := s.mutate(r, func() error {
		var err error
		if req.Radius != nil {
			err = s.ev.SetRadius(i, *req.Radius)
		} else {
			err = s.ev.AddRadiusToPoint(i, *req.Delta)
		}
		if err != nil {
			return err
		}
		radius, err = s.ev.Radius(i)
		return err
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Index  int     `json:"index"`
		Radius float64 `json:"radius"`
	}{i, radius})
}

func (s *Server) handleLength(w http.ResponseWriter, r *http.Request) {
	var req lengthRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Length == nil {
		writeMsg(w, http.StatusBadRequest, "missing length")
		return
	}
	err := s.mutate(r, func() error { return s.scene.SetActiveLength(*req.Length) })
	if errors.Is(err, field.ErrIndexOutOfRange) {
		writeMsg(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Length int `json:"length"`
	}{*req.Length})
}

func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	q, ok := queryPoint(w, r)
	if !ok {
		return
	}
	snap := s.ev.Latest()
	writeJSON(w, http.StatusOK, struct {
		X         float64 `json:"x"`
		Y         float64 `json:"y"`
		Field     float64 `json:"field"`
		Elevation float64 `json:"elevation"`
		Version   uint64  `json:"version"`
		Time      float64 `json:"time"`
	}{q.X, q.Y, snap.Field(q), snap.Elevation(q), snap.Version, snap.Time})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	q, ok := queryPoint(w, r)
	if !ok {
		return
	}
	snap := s.ev.Latest()
	c := snap.Classify(q)
	writeJSON(w, http.StatusOK, struct {
		Index   int       `json:"index"`
		Found   bool      `json:"found"`
		Color   colorJSON `json:"color"`
		Version uint64    `json:"version"`
	}{c.Index, c.Found, colorJSON{c.Color.R, c.Color.G, c.Color.B}, snap.Version})
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	pix, size, err := s.loop.Pixels(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	span, _ := tracer.StartSpanFromContext(r.Context(), "frame.encode")
	img := &image.RGBA{Pix: pix, Stride: 4 * size.W, Rect: image.Rect(0, 0, size.W, size.H)}
	var buf bytes.Buffer
	err = png.Encode(&buf, img)
	span.Finish(tracer.WithError(err))
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleSceneNames(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeMsg(w, http.StatusServiceUnavailable, "no scene store configured")
		return
	}
	names, err := s.store.SceneNames(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleSaveScene(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeMsg(w, http.StatusServiceUnavailable, "no scene store configured")
		return
	}
	var rec store.SceneRecord
	if err := s.loop.Do(r.Context(), func(core.Scene) { rec = s.scene.Record() }); err != nil {
		writeErr(w, err)
		return
	}
	rec.Name = mux.Vars(r)["name"]
	if err := s.store.SaveScene(r.Context(), rec); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Name   string `json:"name"`
		Points int    `json:"points"`
	}{rec.Name, len(rec.Points)})
}

func (s *Server) handleLoadScene(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeMsg(w, http.StatusServiceUnavailable, "no scene store configured")
		return
	}
	rec, err := s.store.LoadScene(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := s.mutate(r, func() error { return s.scene.Restore(rec) }); err != nil {
		writeMsg(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Name   string `json:"name"`
		Points int    `json:"points"`
	}{rec.Name, len(rec.Points)})
}

func (s *Server) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeMsg(w, http.StatusServiceUnavailable, "no scene store configured")
		return
	}
	if err := s.store.DeleteScene(r.Context(), mux.Vars(r)["name"]); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
