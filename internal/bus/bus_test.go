package bus

import (
	"testing"

	"github.com/dmgcore/dmgcore/internal/cart"
)

// mustNew wraps rom in a ROM-only cartridge directly: the test ROMs carry no
// cartridge header, so New's header validation would reject them.
func mustNew(t *testing.T, rom []byte) *Bus {
	t.Helper()
	return NewWithCartridge(cart.NewROMOnly(rom))
}

func TestBus_ROMAndRAM(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x0100] = 0x42
	b := mustNew(t, rom)

	if got := b.Read(0x0100); got != 0x42 {
		t.Fatalf("ROM read got %02x, want 42", got)
	}

	b.Write(0xC000, 0x99)
	if got := b.Read(0xC000); got != 0x99 {
		t.Fatalf("RAM read got %02x, want 99", got)
	}

	// Echo RAM mirrors C000-DDFF
	b.Write(0xE000, 0x55)
	if got := b.Read(0xC000); got != 0x55 {
		t.Fatalf("Echo write did not mirror to WRAM: got %02x", got)
	}

	b.Write(0xFF80, 0xAB)
	if got := b.Read(0xFF80); got != 0xAB {
		t.Fatalf("HRAM read got %02x, want AB", got)
	}

	// ROM-only cart has no external RAM
	if got := b.Read(0xA123); got != 0xFF {
		t.Fatalf("Ext RAM (ROM-only) got %02x, want FF", got)
	}
}

func TestBus_VRAM_OAM_InterruptRegs(t *testing.T) {
	b := mustNew(t, make([]byte, 0x8000))

	b.Write(0x8000, 0x11)
	if got := b.Read(0x8000); got != 0x11 {
		t.Fatalf("VRAM read got %02x, want 11", got)
	}

	b.Write(0xFE00, 0x22)
	if got := b.Read(0xFE00); got != 0x22 {
		t.Fatalf("OAM read got %02x, want 22", got)
	}

	b.Write(0xFF0F, 0x3F)
	if got := b.Read(0xFF0F); got != 0xE0|0x1F {
		t.Fatalf("IF read got %02x, want %02x", got, 0xE0|0x1F)
	}

	b.Write(0xFFFF, 0x1B)
	if got := b.Read(0xFFFF); got != 0x1B {
		t.Fatalf("IE read got %02x, want 1B", got)
	}
}

func TestBus_JOYP(t *testing.T) {
	b := mustNew(t, make([]byte, 0x8000))

	if got := b.Read(0xFF00); got&0x0F != 0x0F {
		t.Fatalf("JOYP default lower bits got %02x want 0x0F", got)
	}

	b.Write(0xFF00, 0x20) // bit5=1, bit4=0: select D-Pad
	b.SetJoypadState(JoypRight | JoypUp)
	if got := b.Read(0xFF00); got&0x0F != 0x0A {
		t.Fatalf("JOYP D-Pad got %02x want 0x0A", got&0x0F)
	}
	if b.Read(0xFF0F)&(1<<4) == 0 {
		t.Fatalf("JOYPAD interrupt not raised on button press")
	}

	b.Write(0xFF0F, 0x00)
	b.Write(0xFF00, 0x10) // select Buttons
	b.SetJoypadState(JoypA | JoypStart)
	if got := b.Read(0xFF00); got&0x0F != 0x06 {
		t.Fatalf("JOYP Buttons got %02x want 0x06", got&0x0F)
	}
}

func TestBus_TimersRouteToTimerPackage(t *testing.T) {
	b := mustNew(t, make([]byte, 0x8000))

	b.Write(0xFF07, 0x05) // enable, TAC[1:0]=01
	b.Write(0xFF05, 0xFE)
	b.Write(0xFF06, 0xAB)
	b.Step(32)

	if got := b.Read(0xFF05); got != 0xAB {
		t.Fatalf("TIMA got %02x want AB", got)
	}
	if b.Read(0xFF0F)&(1<<2) == 0 {
		t.Fatalf("TIMER interrupt not raised")
	}
}

func TestBus_SerialImmediate(t *testing.T) {
	b := mustNew(t, make([]byte, 0x8000))
	var out []byte
	b.SetSerialWriter(writerFunc(func(p []byte) (int, error) {
		out = append(out, p...)
		return len(p), nil
	}))

	b.Write(0xFF01, 0x41) // 'A'
	b.Write(0xFF02, 0x81) // start, external clock
	if len(out) != 1 || out[0] != 0x41 {
		t.Fatalf("serial out got %v want [0x41]", out)
	}
	if got := b.Read(0xFF02); got&0x80 != 0 {
		t.Fatalf("serial control bit7 not cleared: %02x", got)
	}
	if b.Read(0xFF0F)&(1<<3) == 0 {
		t.Fatalf("serial IF bit not set after transfer")
	}
}

func TestBus_DMALockout(t *testing.T) {
	b := mustNew(t, make([]byte, 0x8000))
	b.Write(0xC000, 0x42)
	b.Write(0xFF80, 0x99)

	b.Write(0xFF46, 0x80) // DMA source 0x8000

	if got := b.Read(0xC000); got != 0xFF {
		t.Fatalf("WRAM read during DMA got %02x want 0xFF", got)
	}
	if got := b.Read(0xFF80); got != 0x99 {
		t.Fatalf("HRAM read during DMA got %02x want 0x99 (HRAM stays accessible)", got)
	}

	for i := 0; i < 160; i++ {
		b.Step(4)
	}
	if got := b.Read(0xC000); got != 0x42 {
		t.Fatalf("WRAM read after DMA completes got %02x want 0x42", got)
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
