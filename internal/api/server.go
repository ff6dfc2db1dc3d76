// Package api serves a hosted scene over HTTP: point mutations, field and
// classification probes, frame export and scene persistence.
package api

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"geometree/internal/core"
	"geometree/internal/field"
	"geometree/internal/host"
	"geometree/internal/store"

	httptrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gorilla/mux"
)

// Scene is a hosted scene the service can inspect, mutate and persist.
type Scene interface {
	core.Scene
	Evaluator() *field.Evaluator
	SetActiveLength(n int) error
	Record() store.SceneRecord
	Restore(rec store.SceneRecord) error
}

// Server routes requests to the hosted scene. Mutations run on the host
// loop; reads use the published snapshot.
type Server struct {
	loop  *host.Loop
	scene Scene
	ev    *field.Evaluator
	store *store.Store

	router *httptrace.Router
	logger *log.Logger
}

// New builds a server over loop, which must host scene. st may be nil, in
// which case the scene routes answer 503.
func New(loop *host.Loop, scene Scene, st *store.Store, serviceName string) *Server {
	if serviceName == "" {
		serviceName = "fieldd"
	}
	s := &Server{
		loop:   loop,
		scene:  scene,
		ev:     scene.Evaluator(),
		store:  st,
		router: httptrace.NewRouter(httptrace.WithServiceName(serviceName)),
		logger: log.New(os.Stderr, "(api) > ", log.LstdFlags),
	}
	s.routes()
	return s
}

// SetLogger replaces the request logger.
func (s *Server) SetLogger(l *log.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, struct {
			Status string `json:"status"`
		}{"OK from " + s.scene.Name()})
	})
	r.HandleFunc("/api/v1/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/points", s.handleListPoints).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/points", s.handleCreatePoint).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/points/{index:[0-9]+}", s.handleGetPoint).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/points/{index:[0-9]+}", s.handleUpdatePoint).Methods(http.MethodPut)
	r.HandleFunc("/api/v1/points/{index:[0-9]+}/radius", s.handleRadius).Methods(http.MethodPut)
	r.HandleFunc("/api/v1/length", s.handleLength).Methods(http.MethodPut)
	r.HandleFunc("/api/v1/field", s.handleField).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/classify", s.handleClassify).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/frame.png", s.handleFrame).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/scenes", s.handleSceneNames).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/scenes/{name}", s.handleSaveScene).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/scenes/{name}", s.handleLoadScene).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/scenes/{name}", s.handleDeleteScene).Methods(http.MethodDelete)
}

// Handler returns the traced router wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Printf("%s %s %s", r.RemoteAddr, r.Method, r.URL)
		s.router.ServeHTTP(w, r)
	})
}

// Start serves on addr in the background and reports the terminal error on
// errs.
func (s *Server) Start(addr string, errs chan<- error) {
	go func() {
		s.logger.Printf("HTTP server starting (%s)", addr)
		err := http.ListenAndServe(addr, s.Handler())
		errs <- fmt.Errorf("api: %w", err)
	}()
}
