package config

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/BeatGlow/flipdot"
	"github.com/BeatGlow/flipdot/pixel"
)

const counterYAML = `
transport: counter
display:
  width: 28
  height: 16
  rotation: "180"
counter:
  row_advance: FD_ROW
  col_advance: FD_COL
  coil_pulse: FD_COIL
  set: FD_SET
  enable: [FD_EN1, FD_EN2]
  panel: 2
  pulse_width: 2ms
  settle: 250us
  full_refresh: true
http:
  addr: 127.0.0.1:9000
log:
  level: debug
  file: /var/log/flipdotd.log
`

var registerOnce sync.Once

func registerPins(t *testing.T) {
	t.Helper()
	registerOnce.Do(func() {
		for i, name := range []string{"FD_ROW", "FD_COL", "FD_COIL", "FD_SET", "FD_EN1", "FD_EN2"} {
			require.NoError(t, gpioreg.Register(&gpiotest.Pin{N: name, Num: 900 + i}))
		}
	})
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, TransportI2C, c.Transport)
	assert.Equal(t, uint8(0x3c), c.I2C.Addr)
	assert.Equal(t, 32, c.I2C.MaxPacketSize)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, flipdot.DefaultModulo, c.Counter.Modulo)
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(counterYAML))
	require.NoError(t, err)

	assert.Equal(t, TransportCounter, c.Transport)
	assert.Equal(t, 28, c.Display.Width)
	assert.Equal(t, 16, c.Display.Height)
	assert.Equal(t, "180", c.Display.Rotation)
	assert.Equal(t, []string{"FD_EN1", "FD_EN2"}, c.Counter.Enable)
	assert.Equal(t, 2, c.Counter.Panel)
	assert.Equal(t, 2*time.Millisecond, c.Counter.PulseWidth)
	assert.Equal(t, 250*time.Microsecond, c.Counter.Settle)
	assert.True(t, c.Counter.FullRefresh)
	assert.Equal(t, "127.0.0.1:9000", c.HTTP.Addr)
	assert.Equal(t, "debug", c.Log.Level)

	// Defaults survive for keys the file leaves out.
	assert.Equal(t, flipdot.DefaultModulo, c.Counter.Modulo)
	assert.Equal(t, 10, c.Log.MaxSizeMB)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		Name string
		YAML string
	}{
		{"syntax", "display: [1, 2"},
		{"size", "display: {width: 0, height: 16}"},
		{"rotation", "display: {rotation: sideways}"},
		{"level", "log: {level: loud}"},
		{"transport", "transport: can"},
		{"packet size", "i2c: {max_packet_size: 1}"},
		{"spi dc", "transport: spi"},
		{"spi mode", "transport: spi\nspi: {dc: GPIO24, mode: 4}"},
		{"counter pins", "transport: counter\ncounter: {row_advance: A}"},
		{"counter panel", "transport: counter\ncounter: {row_advance: A, col_advance: B, coil_pulse: C, set: D, panel: 5}"},
		{"counter enable", "transport: counter\ncounter: {row_advance: A, col_advance: B, coil_pulse: C, set: D, enable: [a, b, c, d, e]}"},
		{"too large", "transport: counter\ndisplay: {width: 4096, height: 4096}\ncounter: {row_advance: A, col_advance: B, coil_pulse: C, set: D, modulo: 4096}"},
		{"overflowing size", "transport: counter\ndisplay: {width: 2305843009213693953, height: 64}\ncounter: {row_advance: A, col_advance: B, coil_pulse: C, set: D}"},
		{"i2c too wide", "display: {width: 257, height: 8}"},
		{"spi too wide", "transport: spi\ndisplay: {width: 300, height: 8}\nspi: {dc: GPIO24}"},
		{"counter modulo", "transport: counter\ndisplay: {width: 28, height: 16}\ncounter: {row_advance: A, col_advance: B, coil_pulse: C, set: D, modulo: 8}"},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			_, err := Parse([]byte(test.YAML))
			assert.Error(it, err)
		})
	}
}

func TestLoadSave(t *testing.T) {
	c, err := Parse([]byte(counterYAML))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "flipdotd.yaml")
	require.NoError(t, Save(path, c))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPin(t *testing.T) {
	registerPins(t)

	p, err := Pin("")
	assert.NoError(t, err)
	assert.Nil(t, p)

	p, err = Pin("FD_COIL")
	require.NoError(t, err)
	assert.Equal(t, "FD_COIL", p.Name())

	_, err = Pin("FD_NOPE")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestOpenCounter(t *testing.T) {
	registerPins(t)

	c, err := Parse([]byte(counterYAML))
	require.NoError(t, err)
	c.Counter.PulseWidth = -1
	c.Counter.Settle = -1

	d, err := c.Open()
	require.NoError(t, err)
	assert.Equal(t, flipdot.Rotate180, d.Rotation())
	assert.Equal(t, 28, d.Width())
	assert.Equal(t, 16, d.Height())
	assert.IsType(t, &flipdot.Counter{}, d.Transport())

	require.NoError(t, d.Init())
	d.SetPixel(0, 0, pixel.On)
	require.NoError(t, d.Refresh())
	stats := d.Transport().(*flipdot.Counter).Stats()
	assert.True(t, stats.Full)
	assert.Equal(t, 28*16, stats.Dots)
}

func TestOpenValidates(t *testing.T) {
	registerPins(t)

	c, err := Parse([]byte(counterYAML))
	require.NoError(t, err)
	c.Counter.Enable = []string{"FD_EN1", "FD_EN2", "FD_EN1", "FD_EN2", "FD_EN1"}

	var d *flipdot.Display
	require.NotPanics(t, func() { d, err = c.Open() })
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Nil(t, d)

	c.Counter.Enable = nil
	c.Display.Width = 1<<61 + 1
	c.Display.Height = 64
	_, err = c.Open()
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestOpenUnknownPin(t *testing.T) {
	registerPins(t)

	c, err := Parse([]byte(counterYAML))
	require.NoError(t, err)
	c.Counter.Set = "FD_MISSING"

	_, err = c.Open()
	assert.ErrorIs(t, err, ErrInvalid)
}
