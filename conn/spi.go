package conn

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// DefaultBatchSize is used when the host does not report a transfer limit.
const DefaultBatchSize = 4096

// SPI is a connection on a SPI port.
type SPI struct {
	port      spi.PortCloser
	conn      conn.Conn
	batchSize int
}

// OpenSPI opens the numbered SPI bus with the numbered device. The device
// often corresponds to the CS pin for that bus.
func OpenSPI(bus, device int, hz uint32, mode spi.Mode) (*SPI, error) {
	port, err := spireg.Open(fmt.Sprintf("SPI%d.%d", bus, device))
	if err != nil {
		return nil, err
	}

	c, err := port.Connect(physic.Frequency(hz)*physic.Hertz, mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, err
	}

	s := NewSPI(c)
	s.port = port
	return s, nil
}

// NewSPI uses an already established connection.
func NewSPI(c conn.Conn) *SPI {
	s := &SPI{
		conn:      c,
		batchSize: DefaultBatchSize,
	}
	if l, ok := c.(conn.Limits); ok && l.MaxTxSize() > 0 {
		s.batchSize = l.MaxTxSize()
	}
	return s
}

func (c *SPI) String() string {
	return fmt.Sprintf("SPI %s", c.conn)
}

func (c *SPI) Close() error {
	if c.port == nil {
		return nil
	}
	return c.port.Close()
}

// BatchSize is the largest single transfer.
func (c *SPI) BatchSize() int {
	return c.batchSize
}

// Write sends p, split in transfers of at most BatchSize bytes.
func (c *SPI) Write(p []byte) (n int, err error) {
	buffer := p
	for len(buffer) > 0 {
		chunk := buffer
		if len(chunk) > c.batchSize {
			chunk = chunk[:c.batchSize]
		}
		if err = c.conn.Tx(chunk, nil); err != nil {
			return
		}
		n += len(chunk)
		buffer = buffer[len(chunk):]
	}
	return
}
