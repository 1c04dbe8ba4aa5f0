// Package bridge exposes the LEDs and the reader state over HTTP.
package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	"github.com/golang/glog"

	fx "github.com/robotalks/tagback/pkg/framework"
	"github.com/robotalks/tagback/pkg/indicator"
	"github.com/robotalks/tagback/pkg/tag"
)

// StatusFunc reports the indicator state.
type StatusFunc func() indicator.Status

// Status is the body of GET /api/status.
type Status struct {
	Reader   string  `json:"reader"`
	Present  bool    `json:"present"`
	LastUID  tag.UID `json:"last_uid,omitempty"`
	Override string  `json:"override"`
}

// Server serves the HTTP API. Commands become LEDEvents posted into
// the loop running it.
type Server struct {
	Addr      string
	Reader    string
	Status    StatusFunc
	RateLimit int
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.NamedRun("bridge", s))
}

// Run implements Runnable. It must be started by a Loop.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.Addr,
		Handler:      s.Handler(fx.LoopCtlFrom(ctx)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	glog.Infof("bridge listening on %s", s.Addr)
	return fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
}

// Handler builds the router posting commands to ctl.
func (s *Server) Handler(ctl fx.LoopControl) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)
	if s.RateLimit > 0 {
		r.Use(httprate.LimitByIP(s.RateLimit, time.Minute))
	}
	r.Route("/api", func(r chi.Router) {
		r.Get("/led/on", s.ledHandler(ctl, &indicator.LEDEvent{On: true}, "LED ON"))
		r.Get("/led/off", s.ledHandler(ctl, &indicator.LEDEvent{On: false}, "LED OFF"))
		r.Get("/led/auto", s.ledHandler(ctl, &indicator.LEDEvent{Reset: true}, "LED AUTO"))
		r.Get("/status", s.statusHandler)
	})
	return r
}

func (s *Server) ledHandler(ctl fx.LoopControl, ev *indicator.LEDEvent, reply string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		copied := *ev
		ctl.PostEvent(&copied)
		ctl.TriggerNext()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(reply + "\n"))
	}
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	st := Status{Reader: s.Reader}
	if s.Status != nil {
		ind := s.Status()
		st.Present, st.LastUID, st.Override = ind.Present, ind.LastUID, ind.Override
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(&st); err != nil {
		glog.Warningf("bridge: write status: %v", err)
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			glog.V(1).Infof("%s %s %s %d %s", r.Method, r.RequestURI, r.RemoteAddr, ww.Status(), time.Since(start))
		}()
		next.ServeHTTP(ww, r)
	})
}
