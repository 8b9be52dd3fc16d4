package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/BeatGlow/flipdot"
	"github.com/BeatGlow/flipdot/pixel"
)

const (
	testWidth  = 32
	testHeight = 16
)

func newTestServer(t *testing.T, init bool) (*Server, *flipdot.Display, *i2ctest.Record) {
	t.Helper()
	rec := &i2ctest.Record{}
	bus, err := flipdot.NewI2C(rec, nil)
	require.NoError(t, err)
	d, err := flipdot.New(bus, &flipdot.Config{Width: testWidth, Height: testHeight})
	require.NoError(t, err)
	if init {
		require.NoError(t, d.Init())
	}
	return New(d, zerolog.Nop()), d, rec
}

func do(t *testing.T, s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func doJSON(t *testing.T, s *Server, method, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return do(t, s, method, path, b)
}

func countOn(d *flipdot.Display) (n int) {
	for y := 0; y < d.Height(); y++ {
		for x := 0; x < d.Width(); x++ {
			if d.Pixel(x, y) {
				n++
			}
		}
	}
	return
}

func TestStatus(t *testing.T) {
	s, _, _ := newTestServer(t, false)

	w := do(t, s, http.MethodGet, "/display", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var status Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, testWidth, status.Width)
	assert.Equal(t, testHeight, status.Height)
	assert.False(t, status.Initialized)
	assert.Contains(t, status.Display, "32x16")
}

func TestPixel(t *testing.T) {
	s, d, _ := newTestServer(t, true)

	w := do(t, s, http.MethodPut, "/pixel/3/9", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, d.Pixel(3, 9))

	w = do(t, s, http.MethodGet, "/pixel/3/9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"x":3,"y":9,"on":true}`, w.Body.String())

	w = do(t, s, http.MethodPut, "/pixel/3/9?mode=invert", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, d.Pixel(3, 9))

	w = do(t, s, http.MethodPut, "/pixel/3/9?mode=sideways", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Outside the display is ignored, like the driver does.
	w = do(t, s, http.MethodPut, "/pixel/300/9", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, countOn(d))

	w = do(t, s, http.MethodPut, "/pixel/x/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFillClear(t *testing.T) {
	s, d, _ := newTestServer(t, true)

	w := do(t, s, http.MethodPost, "/fill/on", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testWidth*testHeight, countOn(d))
	for _, b := range d.Buffer() {
		require.Equal(t, byte(0xff), b)
	}

	w = do(t, s, http.MethodPost, "/clear", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, countOn(d))

	w = do(t, s, http.MethodPost, "/fill/purple", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/clear", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRotation(t *testing.T) {
	s, d, _ := newTestServer(t, true)

	w := do(t, s, http.MethodPut, "/rotation/90", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, int(flipdot.Rotate90), status.Rotation)
	assert.Equal(t, testHeight, status.Width)
	assert.Equal(t, testWidth, status.Height)
	assert.Equal(t, flipdot.Rotate90, d.Rotation())

	w = do(t, s, http.MethodPut, "/rotation/45", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBuffer(t *testing.T) {
	s, d, _ := newTestServer(t, true)
	size := testWidth * testHeight / 8

	w := do(t, s, http.MethodGet, "/buffer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	assert.Len(t, w.Body.Bytes(), size)

	frame := make([]byte, size)
	frame[0] = 0x01  // (0, 0)
	frame[33] = 0x80 // (1, 15)
	w = do(t, s, http.MethodPut, "/buffer", frame)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, d.Pixel(0, 0))
	assert.True(t, d.Pixel(1, 15))
	assert.Equal(t, 2, countOn(d))

	w = do(t, s, http.MethodPut, "/buffer", frame[:10])
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBufferUninitialized(t *testing.T) {
	s, _, _ := newTestServer(t, false)

	w := do(t, s, http.MethodGet, "/buffer", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPut, "/buffer", make([]byte, 64))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRefresh(t *testing.T) {
	s, _, rec := newTestServer(t, true)

	w := do(t, s, http.MethodPost, "/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	// One address window command and 64 bytes in 31 byte chunks.
	assert.Len(t, rec.Ops, 1+3)

	rec.Ops = nil
	w = do(t, s, http.MethodPut, "/pixel/0/0?refresh=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, rec.Ops, 4)
	assert.Equal(t, byte(0x01), rec.Ops[1].W[1])
}

func TestRefreshUninitialized(t *testing.T) {
	s, _, _ := newTestServer(t, false)

	w := do(t, s, http.MethodPost, "/refresh", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "not initialized")
}

func TestText(t *testing.T) {
	s, d, _ := newTestServer(t, true)

	w := doJSON(t, s, http.MethodPost, "/text", Text{X: 1, Y: 1, Text: "ok"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	n := countOn(d)
	assert.NotZero(t, n)

	w = doJSON(t, s, http.MethodPost, "/text", Text{X: 1, Y: 1, Text: "ok", Mode: "off"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, countOn(d))

	w = doJSON(t, s, http.MethodPost, "/text", Text{Text: "ok", Size: 12})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotZero(t, countOn(d))

	w = do(t, s, http.MethodPost, "/text", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDraw(t *testing.T) {
	s, d, _ := newTestServer(t, true)

	w := doJSON(t, s, http.MethodPost, "/draw", Shape{Shape: "box", X0: 2, Y0: 2, X1: 6, Y1: 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 12, countOn(d))

	w = doJSON(t, s, http.MethodPost, "/draw", Shape{Shape: "box", X0: 2, Y0: 2, X1: 6, Y1: 5, Mode: "invert"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, countOn(d))

	w = doJSON(t, s, http.MethodPost, "/draw", Shape{Shape: "line", X0: 0, Y0: 0, X1: 31, Y1: 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 32, countOn(d))

	w = doJSON(t, s, http.MethodPost, "/draw", Shape{Shape: "star"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "unknown shape"))
}

func TestDo(t *testing.T) {
	s, _, _ := newTestServer(t, true)
	err := s.Do(func(d *flipdot.Display) error {
		d.Fill(pixel.On)
		return nil
	})
	require.NoError(t, err)

	w := do(t, s, http.MethodGet, "/pixel/31/15", nil)
	assert.JSONEq(t, `{"x":31,"y":15,"on":true}`, w.Body.String())
}
