// Package config loads the flipdotd YAML configuration and opens the
// display it describes.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"

	"github.com/BeatGlow/flipdot"
	"github.com/BeatGlow/flipdot/pixel"
)

// Transport names.
const (
	TransportI2C     = "i2c"
	TransportSPI     = "spi"
	TransportCounter = "counter"
)

// ErrInvalid is returned for configuration values that can not be used.
var ErrInvalid = errors.New("config: invalid configuration")

type Display struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Rotation  string `yaml:"rotation,omitempty"`
	Reset     string `yaml:"reset,omitempty"` // GPIO name, e.g. GPIO25
	SkipReset bool   `yaml:"skip_reset,omitempty"`
}

type I2C struct {
	Device        int    `yaml:"device"` // -1 selects the first bus
	Addr          uint8  `yaml:"addr"`
	SpeedHz       uint32 `yaml:"speed_hz,omitempty"`
	MaxPacketSize int    `yaml:"max_packet_size"`
}

type SPI struct {
	Bus     int    `yaml:"bus"`
	Device  int    `yaml:"device"`
	Mode    int    `yaml:"mode"`
	SpeedHz uint32 `yaml:"speed_hz"`
	DC      string `yaml:"dc"`
	CS      string `yaml:"cs,omitempty"`
	DataLow bool   `yaml:"data_low,omitempty"`
}

type Counter struct {
	RowAdvance   string        `yaml:"row_advance"`
	ColAdvance   string        `yaml:"col_advance"`
	CoilPulse    string        `yaml:"coil_pulse"`
	Set          string        `yaml:"set"`
	Enable       []string      `yaml:"enable,omitempty"` // up to four panel enable lines
	Panel        int           `yaml:"panel"`
	Modulo       int           `yaml:"modulo"`
	PulseWidth   time.Duration `yaml:"pulse_width"`
	Settle       time.Duration `yaml:"settle"`
	AdvanceWidth time.Duration `yaml:"advance_width,omitempty"`
	FullRefresh  bool          `yaml:"full_refresh,omitempty"`
}

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file,omitempty"` // rotated log file, stderr if empty
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty"`
	Compress   bool   `yaml:"compress,omitempty"`
}

type Config struct {
	Transport string  `yaml:"transport"` // "i2c" | "spi" | "counter"
	Display   Display `yaml:"display"`
	I2C       I2C     `yaml:"i2c,omitempty"`
	SPI       SPI     `yaml:"spi,omitempty"`
	Counter   Counter `yaml:"counter,omitempty"`
	HTTP      HTTP    `yaml:"http"`
	Log       Log     `yaml:"log"`
}

// Default returns the configuration used for values a file leaves out.
func Default() *Config {
	return &Config{
		Transport: TransportI2C,
		Display: Display{
			Width:  28,
			Height: 16,
		},
		I2C: I2C{
			Device:        flipdot.DefaultI2CConfig.Device,
			Addr:          flipdot.DefaultI2CConfig.Addr,
			MaxPacketSize: flipdot.DefaultI2CConfig.MaxPacketSize,
		},
		SPI: SPI{
			Bus:     flipdot.DefaultSPIConfig.Bus,
			Device:  flipdot.DefaultSPIConfig.Device,
			Mode:    int(flipdot.DefaultSPIConfig.Mode),
			SpeedHz: flipdot.DefaultSPIConfig.SpeedHz,
		},
		Counter: Counter{
			Panel:      1,
			Modulo:     flipdot.DefaultModulo,
			PulseWidth: flipdot.DefaultPulseWidth,
			Settle:     flipdot.DefaultSettle,
		},
		HTTP: HTTP{
			Addr: ":8080",
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes c to path.
func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate checks the values that can be checked without hardware.
func (c *Config) Validate() error {
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("%w: display size %dx%d", ErrInvalid, c.Display.Width, c.Display.Height)
	}
	if w, h := c.Display.Width, c.Display.Height; w > flipdot.MaxBufferSize || pixel.Pages(h) > flipdot.MaxBufferSize/w {
		return fmt.Errorf("%w: display size %dx%d exceeds %d bytes", ErrInvalid, w, h, flipdot.MaxBufferSize)
	}
	if _, ok := flipdot.ParseRotation(c.Display.Rotation); !ok {
		return fmt.Errorf("%w: rotation %q", ErrInvalid, c.Display.Rotation)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level)
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("%w: no http address", ErrInvalid)
	}

	switch c.Transport {
	case TransportI2C, TransportSPI:
		if c.Display.Width > flipdot.MaxWindowWidth {
			return fmt.Errorf("%w: %s display width %d exceeds %d", ErrInvalid, c.Transport, c.Display.Width, flipdot.MaxWindowWidth)
		}
	}

	switch c.Transport {
	case TransportI2C:
		if c.I2C.MaxPacketSize < 2 {
			return fmt.Errorf("%w: i2c max_packet_size %d", ErrInvalid, c.I2C.MaxPacketSize)
		}
	case TransportSPI:
		if c.SPI.DC == "" {
			return fmt.Errorf("%w: spi needs a dc pin", ErrInvalid)
		}
		if c.SPI.Mode < 0 || c.SPI.Mode > 3 {
			return fmt.Errorf("%w: spi mode %d", ErrInvalid, c.SPI.Mode)
		}
	case TransportCounter:
		for name, pin := range map[string]string{
			"row_advance": c.Counter.RowAdvance,
			"col_advance": c.Counter.ColAdvance,
			"coil_pulse":  c.Counter.CoilPulse,
			"set":         c.Counter.Set,
		} {
			if pin == "" {
				return fmt.Errorf("%w: counter needs a %s pin", ErrInvalid, name)
			}
		}
		if len(c.Counter.Enable) > 4 {
			return fmt.Errorf("%w: at most 4 enable pins, got %d", ErrInvalid, len(c.Counter.Enable))
		}
		if c.Counter.Panel < 1 || c.Counter.Panel > 4 {
			return fmt.Errorf("%w: counter panel %d", ErrInvalid, c.Counter.Panel)
		}
		if c.Counter.Modulo < c.Display.Width || c.Counter.Modulo < c.Display.Height {
			return fmt.Errorf("%w: counter modulo %d is smaller than the display", ErrInvalid, c.Counter.Modulo)
		}
	default:
		return fmt.Errorf("%w: transport %q", ErrInvalid, c.Transport)
	}
	return nil
}

// Pin looks up a GPIO by name, an empty name yields no pin.
func Pin(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: unknown GPIO %q", ErrInvalid, name)
	}
	return p, nil
}

// Open validates c, then opens the transport and creates the display it
// describes. The display is not initialized.
func (c *Config) Open() (*flipdot.Display, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	t, err := c.openTransport()
	if err != nil {
		return nil, err
	}

	rotation, _ := flipdot.ParseRotation(c.Display.Rotation)
	reset, err := Pin(c.Display.Reset)
	if err != nil {
		_ = t.Close()
		return nil, err
	}

	config := &flipdot.Config{
		Width:     c.Display.Width,
		Height:    c.Display.Height,
		Rotation:  rotation,
		SkipReset: c.Display.SkipReset,
	}
	if reset != nil {
		config.Reset = reset
	}

	d, err := flipdot.New(t, config)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	return d, nil
}

func (c *Config) openTransport() (flipdot.Transport, error) {
	switch c.Transport {
	case TransportI2C:
		return flipdot.OpenI2C(&flipdot.I2CConfig{
			Device:        c.I2C.Device,
			Addr:          c.I2C.Addr,
			SpeedHz:       c.I2C.SpeedHz,
			MaxPacketSize: c.I2C.MaxPacketSize,
		})

	case TransportSPI:
		dc, err := Pin(c.SPI.DC)
		if err != nil {
			return nil, err
		}
		cs, err := Pin(c.SPI.CS)
		if err != nil {
			return nil, err
		}
		config := &flipdot.SPIConfig{
			Bus:     c.SPI.Bus,
			Device:  c.SPI.Device,
			Mode:    spi.Mode(c.SPI.Mode),
			SpeedHz: c.SPI.SpeedHz,
			DataLow: c.SPI.DataLow,
		}
		if dc != nil {
			config.DC = dc
		}
		if cs != nil {
			config.CS = cs
		}
		return flipdot.OpenSPI(config)

	case TransportCounter:
		config := &flipdot.CounterConfig{
			Panel:        c.Counter.Panel,
			Modulo:       c.Counter.Modulo,
			PulseWidth:   c.Counter.PulseWidth,
			Settle:       c.Counter.Settle,
			AdvanceWidth: c.Counter.AdvanceWidth,
			FullRefresh:  c.Counter.FullRefresh,
		}
		for _, line := range []struct {
			name string
			dst  *gpio.PinOut
		}{
			{c.Counter.RowAdvance, &config.RowAdvance},
			{c.Counter.ColAdvance, &config.ColAdvance},
			{c.Counter.CoilPulse, &config.CoilPulse},
			{c.Counter.Set, &config.Set},
		} {
			p, err := Pin(line.name)
			if err != nil {
				return nil, err
			}
			*line.dst = p
		}
		for i, name := range c.Counter.Enable {
			if i >= len(config.Enable) {
				return nil, fmt.Errorf("%w: at most %d enable pins", ErrInvalid, len(config.Enable))
			}
			p, err := Pin(name)
			if err != nil {
				return nil, err
			}
			if p != nil {
				config.Enable[i] = p
			}
		}
		return flipdot.NewCounter(config)

	default:
		return nil, fmt.Errorf("%w: transport %q", ErrInvalid, c.Transport)
	}
}
