package flipdot

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/spi"

	fconn "github.com/BeatGlow/flipdot/conn"
)

// Conn errors.
var (
	ErrDCPin = errors.New("flipdot: data/command (DC) GPIO pin is invalid")
)

// I2CConfig describes the I²C bus configuration.
type I2CConfig struct {
	// Device is the I²C device, use -1 to use the first available device.
	Device int

	// Addr is the I²C address.
	Addr uint8

	// SpeedHz is the bus clock, 0 leaves the bus speed unchanged.
	SpeedHz uint32

	// MaxPacketSize is the largest transaction the bus accepts, including
	// the control byte.
	MaxPacketSize int
}

// DefaultI2CConfig are the default configuration values.
var DefaultI2CConfig = I2CConfig{
	Device:        -1,
	Addr:          0x3c,
	MaxPacketSize: 32,
}

type i2cConn struct {
	*fconn.I2C
	maxPacketSize int
}

// OpenI2C opens an I²C bus from the host registry.
func OpenI2C(config *I2CConfig) (Bus, error) {
	config = i2cDefaults(config)

	c, err := fconn.OpenI2C(config.Device, uint16(config.Addr))
	if err != nil {
		return nil, err
	}
	return newI2C(c, config)
}

// NewI2C uses an already opened I²C bus.
func NewI2C(bus i2c.Bus, config *I2CConfig) (Bus, error) {
	config = i2cDefaults(config)
	return newI2C(fconn.NewI2C(bus, uint16(config.Addr)), config)
}

func i2cDefaults(config *I2CConfig) *I2CConfig {
	c := DefaultI2CConfig
	if config != nil {
		c = *config
	}
	if c.MaxPacketSize == 0 {
		c.MaxPacketSize = DefaultI2CConfig.MaxPacketSize
	}
	if c.Addr == 0 {
		c.Addr = DefaultI2CConfig.Addr
	}
	return &c
}

func newI2C(c *fconn.I2C, config *I2CConfig) (Bus, error) {
	if config.MaxPacketSize < 2 {
		_ = c.Close()
		return nil, fmt.Errorf("%w: I²C packet size %d can not carry data", ErrTransport, config.MaxPacketSize)
	}
	if config.SpeedHz > 0 {
		if err := c.SetSpeed(config.SpeedHz); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return &i2cConn{
		I2C:           c,
		maxPacketSize: config.MaxPacketSize,
	}, nil
}

func (c *i2cConn) MaxPacketSize() int {
	return c.maxPacketSize
}

func (c *i2cConn) Command(cmnd byte, args ...byte) error {
	for _, packet := range frame(controlCommand, append([]byte{cmnd}, args...), c.maxPacketSize) {
		if err := c.Packet(packet); err != nil {
			return err
		}
	}
	return nil
}

func (c *i2cConn) Packet(p []byte) (err error) {
	_, err = c.I2C.Write(p)
	return
}

// SPIConfig describes the SPI bus configuration.
type SPIConfig struct {
	Bus     int
	Device  int
	Mode    spi.Mode
	SpeedHz uint32

	// DataLow selects data mode with a low DC line.
	DataLow bool

	// DC is the data/command select line, required.
	DC gpio.PinOut

	// CS is an optional chip select line, driven low during transfers.
	CS gpio.PinOut
}

// DefaultSPIConfig are the default configuration values.
var DefaultSPIConfig = SPIConfig{
	Bus:     0,
	Device:  0,
	Mode:    spi.Mode0,
	SpeedHz: 8_000_000,
}

// ValidSPISpeeds are common valid SPI bus speeds.
var ValidSPISpeeds = []uint32{
	500_000,
	1_000_000,
	2_000_000,
	4_000_000,
	8_000_000,
	16_000_000,
	20_000_000,
	24_000_000,
	28_000_000,
	32_000_000,
	36_000_000,
	40_000_000,
	48_000_000,
	50_000_000,
	52_000_000,
}

type spiConn struct {
	bus     *fconn.SPI
	dc      gpio.PinOut
	dcLevel gpio.Level
	dcKnown bool
	cs      gpio.PinOut
	dataLow bool
}

// OpenSPI opens a SPI port from the host registry.
func OpenSPI(config *SPIConfig) (Link, error) {
	if config == nil {
		config = new(SPIConfig)
		*config = DefaultSPIConfig
	}
	if err := validDC(config.DC); err != nil {
		return nil, err
	}

	speed := config.SpeedHz
	if speed == 0 {
		speed = DefaultSPIConfig.SpeedHz
	}
	var valid bool
	for _, v := range ValidSPISpeeds {
		if valid = v == speed; valid {
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("flipdot: invalid SPI speed %dHz", speed)
	}

	c, err := fconn.OpenSPI(config.Bus, config.Device, speed, config.Mode)
	if err != nil {
		return nil, err
	}
	return newSPI(c, config), nil
}

// NewSPI uses an already established SPI connection.
func NewSPI(c conn.Conn, config *SPIConfig) (Link, error) {
	if config == nil {
		return nil, ErrDCPin
	}
	if err := validDC(config.DC); err != nil {
		return nil, err
	}
	return newSPI(fconn.NewSPI(c), config), nil
}

func validDC(pin gpio.PinOut) error {
	if pin == nil || pin == gpio.INVALID {
		return ErrDCPin
	}
	return nil
}

func newSPI(c *fconn.SPI, config *SPIConfig) *spiConn {
	cs := config.CS
	if cs == gpio.INVALID {
		cs = nil
	}
	return &spiConn{
		bus:     c,
		dc:      config.DC,
		cs:      cs,
		dataLow: config.DataLow,
	}
}

func (c *spiConn) String() string {
	return c.bus.String()
}

func (c *spiConn) Close() error {
	return c.bus.Close()
}

func (c *spiConn) updateDC(level gpio.Level) error {
	if !c.dcKnown || c.dcLevel != level {
		if err := c.dc.Out(level); err != nil {
			return err
		}
		c.dcLevel = level
		c.dcKnown = true
	}
	return nil
}

func (c *spiConn) updateCS(level gpio.Level) error {
	if c.cs == nil {
		return nil
	}
	return c.cs.Out(level)
}

func (c *spiConn) Command(cmnd byte, data ...byte) (err error) {
	if err = c.updateDC(gpio.Level(c.dataLow)); err != nil {
		return
	}
	return c.write(append([]byte{cmnd}, data...))
}

func (c *spiConn) Data(data ...byte) (err error) {
	if len(data) == 0 {
		return
	}
	if err = c.updateDC(gpio.Level(!c.dataLow)); err != nil {
		return
	}
	return c.write(data)
}

func (c *spiConn) write(p []byte) (err error) {
	if err = c.updateCS(gpio.Low); err != nil {
		return
	}
	if _, err = c.bus.Write(p); err != nil {
		_ = c.updateCS(gpio.High)
		return
	}
	return c.updateCS(gpio.High)
}
