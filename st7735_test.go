package st7735

import (
	"bytes"
	"errors"
	"image"
	"os"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/devices/v3/st7735/image565"
)

// slept records every settle delay instead of waiting.
var slept []time.Duration

func TestMain(m *testing.M) {
	sleep = func(d time.Duration) { slept = append(slept, d) }
	os.Exit(m.Run())
}

// fakeBus is a Transport that records frames.
type fakeBus struct {
	frames []frame
	err    error
}

type frame struct {
	cmd  bool
	data []byte
}

// op is a command with all the data frames that followed it.
type op struct {
	cmd  byte
	data []byte
}

func (b *fakeBus) Command(cmd byte) error {
	if b.err != nil {
		return b.err
	}
	b.frames = append(b.frames, frame{cmd: true, data: []byte{cmd}})
	return nil
}

func (b *fakeBus) Data(p []byte) error {
	if b.err != nil {
		return b.err
	}
	b.frames = append(b.frames, frame{data: append([]byte(nil), p...)})
	return nil
}

func (b *fakeBus) ops() []op {
	var out []op
	for _, f := range b.frames {
		if f.cmd {
			out = append(out, op{cmd: f.data[0]})
			continue
		}
		if len(out) == 0 {
			out = append(out, op{})
		}
		out[len(out)-1].data = append(out[len(out)-1].data, f.data...)
	}
	return out
}

func (b *fakeBus) reset() {
	b.frames = nil
}

// recordPin is a gpiotest.Pin that remembers every level driven on it.
type recordPin struct {
	*gpiotest.Pin
	levels []gpio.Level
}

func newRecordPin(name string) *recordPin {
	return &recordPin{Pin: &gpiotest.Pin{N: name}}
}

func (p *recordPin) Out(l gpio.Level) error {
	p.levels = append(p.levels, l)
	return p.Pin.Out(l)
}

func newTestDev(t *testing.T, w, h int) (*Dev, *fakeBus) {
	t.Helper()
	bus := &fakeBus{}
	d, err := newDev(bus, &Opts{W: w, H: h})
	if err != nil {
		t.Fatalf("newDev() = %v", err)
	}
	return d, bus
}

func checkOp(t *testing.T, got op, cmd byte, data []byte) {
	t.Helper()
	if got.cmd != cmd {
		t.Errorf("command = 0x%02X, want 0x%02X", got.cmd, cmd)
	}
	if !bytes.Equal(got.data, data) {
		t.Errorf("command 0x%02X data = % X, want % X", cmd, got.data, data)
	}
}

func TestOptsValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    *Opts
		wantErr bool
	}{
		{"nil options (uses defaults)", nil, false},
		{"valid 160x128", &Opts{W: 160, H: 128}, false},
		{"valid 128x160", &Opts{W: 128, H: 160}, false},
		{"valid 1x1 (minimum)", &Opts{W: 1, H: 1}, false},
		{"valid 162x162 (maximum)", &Opts{W: 162, H: 162}, false},
		{"width zero", &Opts{W: 0, H: 128}, true},
		{"width > 162", &Opts{W: 200, H: 128}, true},
		{"height zero", &Opts{W: 160, H: 0}, true},
		{"negative height", &Opts{W: 160, H: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newDev(&fakeBus{}, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("newDev() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInitSequence(t *testing.T) {
	bus := &fakeBus{}
	rst := newRecordPin("RST")
	slept = nil

	d, err := New(bus, &Opts{W: 4, H: 2, RST: rst, Background: image565.Blue})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	wantLevels := []gpio.Level{gpio.High, gpio.Low, gpio.High}
	if len(rst.levels) != len(wantLevels) {
		t.Fatalf("RST levels = %v, want %v", rst.levels, wantLevels)
	}
	for i := range wantLevels {
		if rst.levels[i] != wantLevels[i] {
			t.Errorf("RST level[%d] = %v, want %v", i, rst.levels[i], wantLevels[i])
		}
	}

	ops := bus.ops()
	if len(ops) != 8 {
		t.Fatalf("got %d commands, want 8: %v", len(ops), ops)
	}
	checkOp(t, ops[0], softwareRst, nil)
	checkOp(t, ops[1], sleepOut, nil)
	checkOp(t, ops[2], pixelFormat, []byte{0x05})
	checkOp(t, ops[3], memoryDAC, []byte{0xA0})
	checkOp(t, ops[4], displayOn, nil)
	checkOp(t, ops[5], columnAddress, []byte{0x00, 0x00, 0x00, 0x03})
	checkOp(t, ops[6], rowAddress, []byte{0x00, 0x00, 0x00, 0x01})
	checkOp(t, ops[7], memoryWrite, bytes.Repeat([]byte{0x00, 0x1F}, 8))

	wantSleeps := []time.Duration{
		200 * time.Millisecond, 200 * time.Millisecond, // reset
		150 * time.Millisecond, // software reset
		200 * time.Millisecond, // sleep out
		10 * time.Millisecond,  // color mode
		200 * time.Millisecond, // display on
	}
	if len(slept) != len(wantSleeps) {
		t.Fatalf("slept %v, want %v", slept, wantSleeps)
	}
	for i := range wantSleeps {
		if slept[i] != wantSleeps[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, slept[i], wantSleeps[i])
		}
	}

	if d.Background() != image565.Blue {
		t.Errorf("Background() = 0x%04X, want Blue", d.Background())
	}
}

func TestInitWithoutReset(t *testing.T) {
	bus := &fakeBus{}
	slept = nil
	if _, err := New(bus, &Opts{W: 2, H: 2}); err != nil {
		t.Fatalf("New() = %v", err)
	}
	if len(slept) == 0 || slept[0] != 150*time.Millisecond {
		t.Errorf("first sleep = %v, want 150ms software reset settle", slept)
	}
	if ops := bus.ops(); ops[0].cmd != softwareRst {
		t.Errorf("first command = 0x%02X, want software reset", ops[0].cmd)
	}
}

func TestInitTransportError(t *testing.T) {
	want := errors.New("bus down")
	_, err := New(&fakeBus{err: want}, nil)
	if !errors.Is(err, want) {
		t.Errorf("New() = %v, want %v", err, want)
	}
}

func TestSetWindow(t *testing.T) {
	d, bus := newTestDev(t, 160, 128)

	if err := d.SetWindow(1, 158, 2, 127); err != nil {
		t.Fatalf("SetWindow() = %v", err)
	}
	ops := bus.ops()
	if len(ops) != 2 {
		t.Fatalf("got %d commands, want 2", len(ops))
	}
	checkOp(t, ops[0], columnAddress, []byte{0x00, 0x01, 0x00, 0x9E})
	checkOp(t, ops[1], rowAddress, []byte{0x00, 0x02, 0x00, 0x7F})
}

func TestSetWindowErrors(t *testing.T) {
	tests := []struct {
		name           string
		x0, x1, y0, y1 int
		want           error
	}{
		{"reversed x", 10, 5, 0, 0, ErrInvalidWindow},
		{"reversed y", 0, 0, 9, 3, ErrInvalidWindow},
		{"x1 off screen", 0, 160, 0, 0, ErrOutOfRange},
		{"y1 off screen", 0, 0, 0, 128, ErrOutOfRange},
		{"negative start", -1, 3, 0, 0, ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, bus := newTestDev(t, 160, 128)
			err := d.SetWindow(tt.x0, tt.x1, tt.y0, tt.y1)
			if !errors.Is(err, tt.want) {
				t.Errorf("SetWindow() = %v, want %v", err, tt.want)
			}
			if len(bus.frames) != 0 {
				t.Errorf("SetWindow() sent %d frames on failure", len(bus.frames))
			}
		})
	}
}

func TestDrawPixelInRange(t *testing.T) {
	d, bus := newTestDev(t, 8, 6)
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			bus.reset()
			if err := d.DrawPixel(x, y, image565.Magenta); err != nil {
				t.Fatalf("DrawPixel(%d, %d) = %v", x, y, err)
			}
			ops := bus.ops()
			if len(ops) != 3 {
				t.Fatalf("DrawPixel(%d, %d) sent %d commands, want 3", x, y, len(ops))
			}
			checkOp(t, ops[0], columnAddress, []byte{0, byte(x), 0, byte(x)})
			checkOp(t, ops[1], rowAddress, []byte{0, byte(y), 0, byte(y)})
			checkOp(t, ops[2], memoryWrite, []byte{0xF8, 0x1F})
		}
	}
}

func TestDrawPixelOutOfRange(t *testing.T) {
	d, bus := newTestDev(t, 160, 128)
	for _, p := range []image.Point{{160, 0}, {0, 128}, {200, 200}, {-1, 0}, {0, -1}} {
		if err := d.DrawPixel(p.X, p.Y, image565.White); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("DrawPixel(%v) = %v, want ErrOutOfRange", p, err)
		}
	}
	if len(bus.frames) != 0 {
		t.Errorf("sent %d frames for off-screen pixels", len(bus.frames))
	}
}

func TestCheckRange(t *testing.T) {
	d, _ := newTestDev(t, 160, 128)
	tests := []struct {
		x, y int
		ok   bool
	}{
		{0, 0, true},
		{159, 127, true},
		{160, 127, false},
		{159, 128, false},
		{-1, 0, false},
	}
	for _, tt := range tests {
		if err := d.CheckRange(tt.x, tt.y); (err == nil) != tt.ok {
			t.Errorf("CheckRange(%d, %d) = %v, want ok %v", tt.x, tt.y, err, tt.ok)
		}
	}
}

func TestClearScreen(t *testing.T) {
	d, bus := newTestDev(t, 160, 128)
	if err := d.ClearScreen(image565.Red); err != nil {
		t.Fatalf("ClearScreen() = %v", err)
	}

	ops := bus.ops()
	if len(ops) != 3 {
		t.Fatalf("got %d commands, want 3", len(ops))
	}
	checkOp(t, ops[0], columnAddress, []byte{0x00, 0x00, 0x00, 0x9F})
	checkOp(t, ops[1], rowAddress, []byte{0x00, 0x00, 0x00, 0x7F})
	if ops[2].cmd != memoryWrite {
		t.Fatalf("third command = 0x%02X, want RAM write", ops[2].cmd)
	}
	if n := len(ops[2].data) / 2; n != 160*128 {
		t.Errorf("wrote %d colors, want %d", n, 160*128)
	}
	for i := 0; i < len(ops[2].data); i += 2 {
		if ops[2].data[i] != 0xF8 || ops[2].data[i+1] != 0x00 {
			t.Fatalf("color %d = % X, want F8 00", i/2, ops[2].data[i:i+2])
		}
	}
	for _, f := range bus.frames {
		if len(f.data) > streamChunk {
			t.Errorf("data frame of %d bytes exceeds %d", len(f.data), streamChunk)
		}
	}
	if d.Background() != image565.Red {
		t.Errorf("Background() = 0x%04X, want Red", d.Background())
	}
}

func TestClearScreenErrorKeepsBackground(t *testing.T) {
	d, bus := newTestDev(t, 8, 8)
	if err := d.ClearScreen(image565.Green); err != nil {
		t.Fatal(err)
	}
	want := errors.New("bus down")
	bus.err = want
	if err := d.ClearScreen(image565.Red); !errors.Is(err, want) {
		t.Fatalf("ClearScreen() = %v, want %v", err, want)
	}
	if d.Background() != image565.Green {
		t.Errorf("Background() = 0x%04X, want Green", d.Background())
	}
}

func TestDisplayOnOff(t *testing.T) {
	d, bus := newTestDev(t, 160, 128)
	slept = nil

	if err := d.DisplayOff(); err != nil {
		t.Fatal(err)
	}
	if err := d.DisplayOn(); err != nil {
		t.Fatal(err)
	}
	ops := bus.ops()
	if len(ops) != 2 {
		t.Fatalf("got %d commands, want 2", len(ops))
	}
	checkOp(t, ops[0], displayOff, nil)
	checkOp(t, ops[1], displayOn, nil)
	if len(slept) != 2 || slept[0] != 200*time.Millisecond || slept[1] != 200*time.Millisecond {
		t.Errorf("slept %v, want [200ms 200ms]", slept)
	}
}

func TestDevHalt(t *testing.T) {
	d, bus := newTestDev(t, 160, 128)

	if d.halted {
		t.Error("device should not be halted initially")
	}
	if err := d.Halt(); err != nil {
		t.Fatalf("Halt() = %v", err)
	}
	if ops := bus.ops(); len(ops) != 1 || ops[0].cmd != displayOff {
		t.Errorf("Halt() sent %v, want display off", ops)
	}
	bus.reset()

	checks := []struct {
		name string
		err  error
	}{
		{"DrawPixel", d.DrawPixel(0, 0, image565.White)},
		{"ClearScreen", d.ClearScreen(image565.White)},
		{"SetWindow", d.SetWindow(0, 1, 0, 1)},
		{"FillRect", d.FillRect(0, 0, 1, 1, image565.White)},
		{"DrawLine", d.DrawLine(0, 0, 5, 5, image565.White)},
		{"DrawRect", d.DrawRect(0, 0, 5, 5, image565.White)},
		{"DrawChar", d.DrawChar('A', image565.White, X1)},
		{"DrawString", d.DrawString("A", image565.White, X1)},
		{"Draw", d.Draw(d.Bounds(), image.NewRGBA(d.Bounds()), image.Point{})},
	}
	for _, c := range checks {
		if !errors.Is(c.err, ErrHalted) {
			t.Errorf("%s after Halt = %v, want ErrHalted", c.name, c.err)
		}
	}
	if len(bus.frames) != 0 {
		t.Errorf("sent %d frames while halted", len(bus.frames))
	}

	if err := d.Init(); err != nil {
		t.Fatalf("Init() = %v", err)
	}
	if err := d.DrawPixel(0, 0, image565.White); err != nil {
		t.Errorf("DrawPixel after Init = %v", err)
	}
}

func TestSetScreenSize(t *testing.T) {
	d, _ := newTestDev(t, 160, 128)
	if err := d.SetPosition(150, 100); err != nil {
		t.Fatal(err)
	}

	if err := d.SetScreenSize(128, 160); err != nil {
		t.Fatalf("SetScreenSize() = %v", err)
	}
	if got := d.Bounds(); got != image.Rect(0, 0, 128, 160) {
		t.Errorf("Bounds() = %v, want 128x160", got)
	}
	if x, y := d.Position(); x != 0 || y != 0 {
		t.Errorf("cursor = (%d,%d), want (0,0) after shrinking past it", x, y)
	}
	if err := d.CheckRange(127, 159); err != nil {
		t.Errorf("CheckRange(127, 159) = %v", err)
	}
	if err := d.SetScreenSize(0, 10); err == nil {
		t.Error("SetScreenSize(0, 10) should fail")
	}
}

func TestDevBounds(t *testing.T) {
	d, _ := newTestDev(t, 160, 128)
	want := image.Rect(0, 0, 160, 128)
	if got := d.Bounds(); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
}

func TestDevColorModel(t *testing.T) {
	d := &Dev{}
	if d.ColorModel() != image565.Model {
		t.Error("ColorModel() did not return image565.Model")
	}
}

func TestDevString(t *testing.T) {
	d := &Dev{rect: image.Rect(0, 0, 160, 128)}
	want := "st7735.Dev{160x128}"
	if got := d.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTransportErrorWrapped(t *testing.T) {
	d, bus := newTestDev(t, 160, 128)
	want := errors.New("bus down")
	bus.err = want

	err := d.DrawPixel(1, 1, image565.White)
	if !errors.Is(err, want) {
		t.Errorf("DrawPixel() = %v, want wrapped %v", err, want)
	}
}
