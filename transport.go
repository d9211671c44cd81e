package st7735

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// Transport carries command and data bytes to the controller.
//
// Every call is one frame: the D/C line is set (low for a command, high for
// data), the chip is selected, the bytes are shifted out in order and the
// chip is released again.
type Transport interface {
	Command(cmd byte) error
	Data(p []byte) error
}

// SPITransport is a Transport over a periph.io connection.
type SPITransport struct {
	c conn.Conn

	// dc is low when sending a command, high when sending data.
	dc gpio.PinOut
	// cs is an optional chip select pin, active low. When nil, the SPI
	// controller drives chip select on every transaction.
	cs gpio.PinOut
	// maxTxSize is the largest number of bytes sent in one transaction.
	maxTxSize int
}

// NewSPITransport returns a Transport sending over c.
//
// cs may be nil.
func NewSPITransport(c conn.Conn, dc, cs gpio.PinOut) *SPITransport {
	// Get the maxTxSize from the conn if it implements the conn.Limits
	// interface, otherwise use 4096 bytes.
	maxTxSize := 0
	if limits, ok := c.(conn.Limits); ok {
		maxTxSize = limits.MaxTxSize()
	}
	if maxTxSize == 0 {
		maxTxSize = 4096
	}
	return &SPITransport{c: c, dc: dc, cs: cs, maxTxSize: maxTxSize}
}

// Command sends a single command byte.
func (t *SPITransport) Command(cmd byte) error {
	return t.frame(gpio.Low, []byte{cmd})
}

// Data sends a run of data bytes.
func (t *SPITransport) Data(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	return t.frame(gpio.High, p)
}

func (t *SPITransport) frame(dc gpio.Level, p []byte) (err error) {
	if err := t.dc.Out(dc); err != nil {
		return fmt.Errorf("st7735: failed to set DC: %w", err)
	}
	if t.cs != nil {
		if err := t.cs.Out(gpio.Low); err != nil {
			return fmt.Errorf("st7735: failed to select chip: %w", err)
		}
		defer func() {
			if e := t.cs.Out(gpio.High); e != nil && err == nil {
				err = fmt.Errorf("st7735: failed to release chip: %w", e)
			}
		}()
	}

	for len(p) != 0 {
		var chunk []byte
		if len(p) > t.maxTxSize {
			chunk, p = p[:t.maxTxSize], p[t.maxTxSize:]
		} else {
			chunk, p = p, nil
		}
		if err := t.c.Tx(chunk, nil); err != nil {
			return err
		}
	}
	return nil
}

// String returns the name of the underlying connection.
func (t *SPITransport) String() string {
	return t.c.String()
}
