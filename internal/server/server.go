// Package server exposes a flip-dot display over HTTP.
//
// Every request holds the server lock while it touches the display, the
// driver itself is not safe for concurrent use.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/BeatGlow/flipdot"
	"github.com/BeatGlow/flipdot/draw"
	"github.com/BeatGlow/flipdot/pixel"
)

// Server handles the HTTP API for one display.
type Server struct {
	mu      sync.Mutex
	display *flipdot.Display
	log     zerolog.Logger
	router  *mux.Router
}

// Status describes the display.
type Status struct {
	Display     string `json:"display"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Rotation    int    `json:"rotation"`
	Initialized bool   `json:"initialized"`
}

// Text request for POST /text. A zero Size uses the bitmap face, otherwise
// the TrueType font at Size points.
type Text struct {
	X    int     `json:"x"`
	Y    int     `json:"y"`
	Text string  `json:"text"`
	Mode string  `json:"mode,omitempty"`
	Size float64 `json:"size,omitempty"`
}

// Shape request for POST /draw.
type Shape struct {
	Shape  string `json:"shape"` // line, rectangle, box, rounded-rectangle, rounded-box, circle, disc
	X0     int    `json:"x0"`
	Y0     int    `json:"y0"`
	X1     int    `json:"x1,omitempty"`
	Y1     int    `json:"y1,omitempty"`
	Radius int    `json:"radius,omitempty"`
	Mode   string `json:"mode,omitempty"`
}

type response struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// New creates the API for d, which the server takes exclusive use of.
func New(d *flipdot.Display, log zerolog.Logger) *Server {
	s := &Server{
		display: d,
		log:     log,
		router:  mux.NewRouter(),
	}

	r := s.router
	r.Use(s.logRequests)
	r.HandleFunc("/display", s.apiStatus).Methods(http.MethodGet)
	r.HandleFunc("/clear", s.apiClear).Methods(http.MethodPost)
	r.HandleFunc("/fill/{mode}", s.apiFill).Methods(http.MethodPost)
	r.HandleFunc("/pixel/{x:[0-9]+}/{y:[0-9]+}", s.apiGetPixel).Methods(http.MethodGet)
	r.HandleFunc("/pixel/{x:[0-9]+}/{y:[0-9]+}", s.apiSetPixel).Methods(http.MethodPut)
	r.HandleFunc("/rotation/{rotation}", s.apiRotation).Methods(http.MethodPut)
	r.HandleFunc("/text", s.apiText).Methods(http.MethodPost)
	r.HandleFunc("/draw", s.apiDraw).Methods(http.MethodPost)
	r.HandleFunc("/buffer", s.apiGetBuffer).Methods(http.MethodGet)
	r.HandleFunc("/buffer", s.apiSetBuffer).Methods(http.MethodPut)
	r.HandleFunc("/refresh", s.apiRefresh).Methods(http.MethodPost)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Do runs f with exclusive access to the display.
func (s *Server) Do(f func(*flipdot.Display) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(s.display)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, response{Response: "OK"})
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, response{Response: "BAD", Error: err.Error()})
}

// errorCode maps driver errors to HTTP status codes.
func errorCode(err error) int {
	switch {
	case errors.Is(err, flipdot.ErrNotInitialized):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// refreshAfter refreshes the panel when the request asks for it with
// ?refresh=true. The lock must be held.
func (s *Server) refreshAfter(w http.ResponseWriter, r *http.Request) bool {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); !ok {
		return true
	}
	if err := s.display.Refresh(); err != nil {
		s.log.Error().Err(err).Msg("refresh failed")
		writeError(w, errorCode(err), err)
		return false
	}
	return true
}

func parseMode(s string) (pixel.Mode, error) {
	if s == "" {
		return pixel.On, nil
	}
	m, ok := pixel.ParseMode(s)
	if !ok {
		return 0, fmt.Errorf("invalid mode %q", s)
	}
	return m, nil
}

func (s *Server) status() Status {
	return Status{
		Display:     s.display.String(),
		Width:       s.display.Width(),
		Height:      s.display.Height(),
		Rotation:    int(s.display.Rotation()),
		Initialized: s.display.Initialized(),
	}
}

func (s *Server) apiStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) apiClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.display.Clear()
	if s.refreshAfter(w, r) {
		writeOK(w)
	}
}

func (s *Server) apiFill(w http.ResponseWriter, r *http.Request) {
	m, ok := pixel.ParseMode(mux.Vars(r)["mode"])
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid mode %q", mux.Vars(r)["mode"]))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.display.Fill(m)
	if s.refreshAfter(w, r) {
		writeOK(w)
	}
}

func pixelVars(r *http.Request) (x, y int, err error) {
	vars := mux.Vars(r)
	if x, err = strconv.Atoi(vars["x"]); err != nil {
		return
	}
	y, err = strconv.Atoi(vars["y"])
	return
}

func (s *Server) apiGetPixel(w http.ResponseWriter, r *http.Request) {
	x, y, err := pixelVars(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, struct {
		X  int  `json:"x"`
		Y  int  `json:"y"`
		On bool `json:"on"`
	}{x, y, s.display.Pixel(x, y)})
}

func (s *Server) apiSetPixel(w http.ResponseWriter, r *http.Request) {
	x, y, err := pixelVars(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	m, err := parseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.display.SetPixel(x, y, m)
	if s.refreshAfter(w, r) {
		writeOK(w)
	}
}

func (s *Server) apiRotation(w http.ResponseWriter, r *http.Request) {
	rotation, ok := flipdot.ParseRotation(mux.Vars(r)["rotation"])
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid rotation %q", mux.Vars(r)["rotation"]))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.display.SetRotation(rotation)
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) apiText(w http.ResponseWriter, r *http.Request) {
	var req Text
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	m, err := parseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pt := image.Pt(req.X, req.Y)
	if req.Size > 0 {
		if err = draw.TrueType(s.display, nil, req.Size, pt, req.Text, m); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	} else {
		draw.Text(s.display, pt, req.Text, m)
	}
	if s.refreshAfter(w, r) {
		writeOK(w)
	}
}

func (s *Server) apiDraw(w http.ResponseWriter, r *http.Request) {
	var req Shape
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	m, err := parseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var (
		p0   = image.Pt(req.X0, req.Y0)
		p1   = image.Pt(req.X1, req.Y1)
		rect = image.Rectangle{Min: p0, Max: p1}
		f    func(draw.Canvas)
	)
	switch req.Shape {
	case "line":
		f = func(c draw.Canvas) { draw.Line(c, p0, p1, m) }
	case "rectangle":
		f = func(c draw.Canvas) { draw.Rectangle(c, rect, m) }
	case "box":
		f = func(c draw.Canvas) { draw.Box(c, rect, m) }
	case "rounded-rectangle":
		f = func(c draw.Canvas) { draw.RoundedRectangle(c, rect, req.Radius, m) }
	case "rounded-box":
		f = func(c draw.Canvas) { draw.RoundedBox(c, rect, req.Radius, m) }
	case "circle":
		f = func(c draw.Canvas) { draw.Circle(c, p0, req.Radius, m) }
	case "disc":
		f = func(c draw.Canvas) { draw.Disc(c, p0, req.Radius, m) }
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown shape %q", req.Shape))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.display)
	if s.refreshAfter(w, r) {
		writeOK(w)
	}
}

func (s *Server) apiGetBuffer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.display.Buffer()
	if buf == nil {
		writeError(w, http.StatusConflict, flipdot.ErrNotInitialized)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	_, _ = w.Write(buf)
}

func (s *Server) apiSetBuffer(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, flipdot.MaxBufferSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.display.Buffer()
	if buf == nil {
		writeError(w, http.StatusConflict, flipdot.ErrNotInitialized)
		return
	}
	if len(data) != len(buf) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("expected %d bytes, got %d", len(buf), len(data)))
		return
	}
	copy(buf, data)
	if s.refreshAfter(w, r) {
		writeOK(w)
	}
}

func (s *Server) apiRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.display.Refresh(); err != nil {
		s.log.Error().Err(err).Msg("refresh failed")
		writeError(w, errorCode(err), err)
		return
	}
	writeOK(w)
}
