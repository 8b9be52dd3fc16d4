package flipdot

import (
	"fmt"
)

// Transport is the physical interface to a panel. It is one of Bus, Link or
// *Counter; Display.Refresh picks the transfer strategy from the kind.
type Transport interface {
	String() string

	// Close the transport.
	Close() error
}

// Bus is a packet framed transport with a fixed maximum packet length, such
// as I²C.
type Bus interface {
	Transport

	// Command sends a command byte with optional arguments in one packet.
	Command(byte, ...byte) error

	// MaxPacketSize is the maximum number of bytes per packet, including the
	// leading control byte.
	MaxPacketSize() int

	// Packet sends one framed transaction.
	Packet([]byte) error
}

// Link is a clocked transport with a data/command signal, such as SPI. It
// has no packet size limit.
type Link interface {
	Transport

	// Command sends a command byte with optional arguments in command mode.
	Command(byte, ...byte) error

	// Data sends data bytes in data mode.
	Data(...byte) error
}

// Refresh pushes the framebuffer to the panel.
func (d *Display) Refresh() error {
	if d.buf == nil {
		return ErrNotInitialized
	}

	switch t := d.t.(type) {
	case Bus:
		return d.refreshBus(t)
	case Link:
		return d.refreshLink(t)
	case *Counter:
		return t.flush(d.buf.Pix, d.width, d.height)
	default:
		return fmt.Errorf("%w: %T", ErrTransport, d.t)
	}
}

func (d *Display) refreshBus(b Bus) (err error) {
	window := addressWindow(d.width)
	if err = b.Command(window[0], window[1:]...); err != nil {
		return fmt.Errorf("flipdot: address window: %w", err)
	}

	var n int
	if n, err = writePackets(b, d.buf.Pix); err != nil {
		return fmt.Errorf("flipdot: refresh: %w", err)
	}
	logger.Debug().Int("bytes", len(d.buf.Pix)).Int("packets", n).Str("bus", b.String()).Msg("refresh")
	return nil
}

// writePackets streams data in packets of at most b.MaxPacketSize() bytes,
// each starting with the data control byte. It returns the packet count.
func writePackets(b Bus, data []byte) (n int, err error) {
	size := b.MaxPacketSize()
	if size < 2 {
		return 0, fmt.Errorf("%w: packet size %d can not carry data", ErrTransport, size)
	}
	for _, packet := range frame(controlData, data, size) {
		if err = b.Packet(packet); err != nil {
			return
		}
		n++
	}
	return
}

func (d *Display) refreshLink(l Link) (err error) {
	window := addressWindow(d.width)
	if err = l.Command(window[0], window[1:]...); err != nil {
		return fmt.Errorf("flipdot: address window: %w", err)
	}
	if err = l.Data(d.buf.Pix...); err != nil {
		return fmt.Errorf("flipdot: refresh: %w", err)
	}
	logger.Debug().Int("bytes", len(d.buf.Pix)).Str("link", l.String()).Msg("refresh")
	return nil
}

// frame splits data in packets of at most size bytes, each starting with the
// control byte.
func frame(control byte, data []byte, size int) (packets [][]byte) {
	for {
		chunk := data
		if len(chunk) > size-1 {
			chunk = chunk[:size-1]
		}
		packet := make([]byte, 0, len(chunk)+1)
		packet = append(packet, control)
		packet = append(packet, chunk...)
		packets = append(packets, packet)
		if data = data[len(chunk):]; len(data) == 0 {
			return
		}
	}
}
