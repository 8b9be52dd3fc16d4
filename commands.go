package flipdot

import "time"

// Controller commands and control bytes.
const (
	setColumnAddr = 0x21
	setPageAddr   = 0x22

	// I²C control bytes (Co=0), the first byte of every transaction.
	controlCommand = 0x00
	controlData    = 0x40
)

// Reset pulse timing.
const (
	resetSetupTime = 1 * time.Millisecond
	resetHoldTime  = 10 * time.Millisecond
)

// addressWindow is sent before each refresh and selects every page and column.
func addressWindow(width int) []byte {
	return []byte{
		setPageAddr, 0x00, 0xff,
		setColumnAddr, 0x00, byte(width - 1),
	}
}
