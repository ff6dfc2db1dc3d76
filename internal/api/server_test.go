package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"geometree/internal/host"
	"geometree/internal/scenes/terrain"
	"geometree/internal/store"
)

type fixture struct {
	srv   *httptest.Server
	scene *terrain.Scene
	loop  *host.Loop
}

func newFixture(t *testing.T, withStore bool) *fixture {
	t.Helper()
	quiet := log.New(io.Discard, "", 0)

	cfg := terrain.DefaultConfig()
	cfg.Width, cfg.Height = 16, 16
	cfg.Field.Capacity = 3
	cfg.Field.WarpAmplitude = 0
	scene := terrain.New(cfg)
	scene.SetLogger(quiet)

	loop := host.New(scene, 0)
	loop.SetLogger(quiet)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	var st *store.Store
	if withStore {
		var err error
		st, err = store.Open(":memory:")
		if err != nil {
			t.Fatalf("store.Open failed: %v", err)
		}
	}
	s := New(loop, scene, st, "test")
	s.SetLogger(quiet)
	srv := httptest.NewServer(s.Handler())

	t.Cleanup(func() {
		srv.Close()
		cancel()
		scene.Close()
		if st != nil {
			st.Close()
		}
	})
	return &fixture{srv: srv, scene: scene, loop: loop}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func TestCreateAndListPoints(t *testing.T) {
	f := newFixture(t, false)
	code, body := f.do(t, http.MethodPost, "/api/v1/points", `{"x":0,"y":0,"radius":0.5,"color":{"r":1,"g":0,"b":0}}`)
	if code != http.StatusCreated || !strings.Contains(string(body), `"index":0`) {
		t.Fatalf("create = %d %s", code, body)
	}
	f.do(t, http.MethodPost, "/api/v1/points", `{"x":2,"y":2,"radius":0.5}`)

	code, body = f.do(t, http.MethodGet, "/api/v1/points", "")
	if code != http.StatusOK {
		t.Fatalf("list = %d", code)
	}
	var points []pointJSON
	if err := json.Unmarshal(body, &points); err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 || points[0].Color.R != 1 || points[1].X != 2 {
		t.Fatalf("points = %+v", points)
	}
}

func TestCreateErrors(t *testing.T) {
	f := newFixture(t, false)
	code, body := f.do(t, http.MethodPost, "/api/v1/points", `{"x":0,"y":0,"radius":0}`)
	if code != http.StatusUnprocessableEntity || !strings.Contains(string(body), `"msg"`) {
		t.Fatalf("zero radius = %d %s", code, body)
	}
	for i := 0; i < 3; i++ {
		f.do(t, http.MethodPost, "/api/v1/points", `{"radius":0.1}`)
	}
	if code, _ := f.do(t, http.MethodPost, "/api/v1/points", `{"radius":0.1}`); code != http.StatusConflict {
		t.Fatalf("over capacity = %d", code)
	}
	if code, _ := f.do(t, http.MethodPost, "/api/v1/points", `{`); code != http.StatusBadRequest {
		t.Fatalf("bad json = %d", code)
	}
}

func TestUpdateAndRadius(t *testing.T) {
	f := newFixture(t, false)
	f.do(t, http.MethodPost, "/api/v1/points", `{"radius":0.5}`)

	if code, _ := f.do(t, http.MethodPut, "/api/v1/points/0", `{"x":1,"y":1}`); code != http.StatusOK {
		t.Fatalf("update = %d", code)
	}
	if code, _ := f.do(t, http.MethodPut, "/api/v1/points/7", `{"x":1}`); code != http.StatusNotFound {
		t.Fatalf("update out of range = %d", code)
	}
	code, body := f.do(t, http.MethodPut, "/api/v1/points/0/radius", `{"delta":0.25}`)
	if code != http.StatusOK || !strings.Contains(string(body), `"radius":0.75`) {
		t.Fatalf("delta = %d %s", code, body)
	}
	if code, _ := f.do(t, http.MethodPut, "/api/v1/points/0/radius", `{"delta":-5}`); code != http.StatusUnprocessableEntity {
		t.Fatalf("negative result = %d", code)
	}
	if code, _ := f.do(t, http.MethodPut, "/api/v1/points/0/radius", `{}`); code != http.StatusBadRequest {
		t.Fatalf("empty radius body = %d", code)
	}
	code, body = f.do(t, http.MethodGet, "/api/v1/points/0", "")
	if code != http.StatusOK || !strings.Contains(string(body), `"x":1`) {
		t.Fatalf("get = %d %s", code, body)
	}
}

func TestFieldAndClassify(t *testing.T) {
	f := newFixture(t, false)
	f.do(t, http.MethodPost, "/api/v1/points", `{"x":0,"y":0,"radius":0.5,"color":{"r":1,"g":0,"b":0}}`)

	code, body := f.do(t, http.MethodGet, "/api/v1/field?x=0&y=0", "")
	var fr struct {
		Field     float64 `json:"field"`
		Elevation float64 `json:"elevation"`
	}
	if code != http.StatusOK || json.Unmarshal(body, &fr) != nil || fr.Field != -1 || fr.Elevation != -1 {
		t.Fatalf("field = %d %s", code, body)
	}
	if code, _ := f.do(t, http.MethodGet, "/api/v1/field?x=abc&y=0", ""); code != http.StatusBadRequest {
		t.Fatalf("bad x = %d", code)
	}

	code, body = f.do(t, http.MethodGet, "/api/v1/classify?x=10&y=10", "")
	if code != http.StatusOK || !strings.Contains(string(body), `"index":-1`) || !strings.Contains(string(body), `"found":false`) {
		t.Fatalf("classify fallback = %d %s", code, body)
	}
	code, body = f.do(t, http.MethodGet, "/api/v1/classify?x=0&y=0", "")
	if code != http.StatusOK || !strings.Contains(string(body), `"index":0`) {
		t.Fatalf("classify = %d %s", code, body)
	}
}

func TestLength(t *testing.T) {
	f := newFixture(t, false)
	f.do(t, http.MethodPost, "/api/v1/points", `{"radius":0.5}`)
	f.do(t, http.MethodPost, "/api/v1/points", `{"radius":0.5}`)
	if code, _ := f.do(t, http.MethodPut, "/api/v1/length", `{"length":1}`); code != http.StatusOK {
		t.Fatalf("length = %d", code)
	}
	if code, _ := f.do(t, http.MethodPut, "/api/v1/length", `{"length":9}`); code != http.StatusUnprocessableEntity {
		t.Fatalf("length past capacity = %d", code)
	}
	_, body := f.do(t, http.MethodGet, "/api/v1/status", "")
	if !strings.Contains(string(body), `"points":1`) {
		t.Fatalf("status = %s", body)
	}
}

func TestFramePNG(t *testing.T) {
	f := newFixture(t, false)
	f.do(t, http.MethodPost, "/api/v1/points", `{"radius":0.5}`)
	if err := f.loop.StepNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	code, body := f.do(t, http.MethodGet, "/api/v1/frame.png", "")
	if code != http.StatusOK {
		t.Fatalf("frame = %d", code)
	}
	img, err := png.Decode(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("png.Decode failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Fatalf("frame bounds = %v", b)
	}
}

func TestScenePersistence(t *testing.T) {
	f := newFixture(t, true)
	f.do(t, http.MethodPost, "/api/v1/points", `{"x":0.5,"radius":0.3}`)
	if code, body := f.do(t, http.MethodPost, "/api/v1/scenes/one", ""); code != http.StatusCreated {
		t.Fatalf("save = %d %s", code, body)
	}
	f.do(t, http.MethodPut, "/api/v1/length", `{"length":0}`)

	if code, body := f.do(t, http.MethodGet, "/api/v1/scenes/one", ""); code != http.StatusOK {
		t.Fatalf("load = %d %s", code, body)
	}
	_, body := f.do(t, http.MethodGet, "/api/v1/points", "")
	if !strings.Contains(string(body), `"x":0.5`) {
		t.Fatalf("points after load = %s", body)
	}
	if code, _ := f.do(t, http.MethodGet, "/api/v1/scenes/missing", ""); code != http.StatusNotFound {
		t.Fatalf("missing scene = %d", code)
	}
	_, body = f.do(t, http.MethodGet, "/api/v1/scenes", "")
	if strings.TrimSpace(string(body)) != `["one"]` {
		t.Fatalf("names = %s", body)
	}
	if code, _ := f.do(t, http.MethodDelete, "/api/v1/scenes/one", ""); code != http.StatusNoContent {
		t.Fatalf("delete = %d", code)
	}
}

func TestScenesWithoutStore(t *testing.T) {
	f := newFixture(t, false)
	if code, _ := f.do(t, http.MethodGet, "/api/v1/scenes", ""); code != http.StatusServiceUnavailable {
		t.Fatalf("scenes without store = %d", code)
	}
}
