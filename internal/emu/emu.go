package emu

import (
	"io"
	"os"

	"github.com/dmgcore/dmgcore/internal/bus"
	"github.com/dmgcore/dmgcore/internal/cart"
	"github.com/dmgcore/dmgcore/internal/cpu"
)

// Buttons mirrors the DMG joypad matrix for a host frontend to set once
// per frame (or on each input event).
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

func (b Buttons) mask() byte {
	var m byte
	if b.Right {
		m |= bus.JoypRight
	}
	if b.Left {
		m |= bus.JoypLeft
	}
	if b.Up {
		m |= bus.JoypUp
	}
	if b.Down {
		m |= bus.JoypDown
	}
	if b.A {
		m |= bus.JoypA
	}
	if b.B {
		m |= bus.JoypB
	}
	if b.Select {
		m |= bus.JoypSelectBtn
	}
	if b.Start {
		m |= bus.JoypStart
	}
	return m
}

// Machine wires the CPU, bus (and through it the PPU, timer, and
// cartridge) into a single steppable unit a host frontend drives one
// frame at a time.
type Machine struct {
	cfg Config

	bus *bus.Bus
	cpu *cpu.CPU

	romPath string
	bootROM []byte
	serial  io.Writer

	fb [160 * 144 * 4]byte // RGBA, filled by StepFrame
}

func New(cfg Config) *Machine {
	return &Machine{cfg: cfg}
}

// SetBootROM stages a DMG boot ROM to run from 0x0000 on the next
// LoadROM/LoadROMFromFile call, instead of the default post-boot
// register/IO state.
func (m *Machine) SetBootROM(data []byte) {
	if len(data) >= 0x100 {
		m.bootROM = append([]byte(nil), data[:0x100]...)
	}
}

// SetSerialWriter attaches a sink for bytes written to the serial port
// (FF01/FF02). Test-ROM suites (e.g. Blargg's) report pass/fail this way.
func (m *Machine) SetSerialWriter(w io.Writer) {
	m.serial = w
	if m.bus != nil {
		m.bus.SetSerialWriter(w)
	}
}

// LoadROM replaces the current cartridge with rom and resets the CPU,
// either to the boot ROM entry point (if one was staged via SetBootROM)
// or to the documented DMG post-boot register/IO state (spec.md §3).
func (m *Machine) LoadROM(rom []byte) error {
	b, err := bus.New(rom)
	if err != nil {
		return err
	}
	m.bus = b
	if m.serial != nil {
		b.SetSerialWriter(m.serial)
	}
	c := cpu.New(b)
	if len(m.bootROM) >= 0x100 {
		b.SetBootROM(m.bootROM)
		c.SetPC(0x0000)
	} else {
		c.ResetNoBoot()
		postBootIO(b)
	}
	m.cpu = c
	return nil
}

// LoadROMFromFile reads rom from disk and loads it, recording the path
// so a host can derive a battery-save sibling file.
func (m *Machine) LoadROMFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := m.LoadROM(data); err != nil {
		return err
	}
	m.romPath = path
	return nil
}

// postBootIO writes the documented DMG post-boot-ROM IO register state
// (spec.md §3) for hosts that skip running an actual boot ROM image.
func postBootIO(b *bus.Bus) {
	b.Write(0xFF00, 0xCF)
	b.Write(0xFF05, 0x00) // TIMA
	b.Write(0xFF06, 0x00) // TMA
	b.Write(0xFF07, 0x00) // TAC
	b.Write(0xFF40, 0x91) // LCDC: on, BG+window tiles at 0x8000, BG on, OBJ off
	b.Write(0xFF42, 0x00) // SCY
	b.Write(0xFF43, 0x00) // SCX
	b.Write(0xFF45, 0x00) // LYC
	b.Write(0xFF47, 0xFC) // BGP
	b.Write(0xFF48, 0xFF) // OBP0
	b.Write(0xFF49, 0xFF) // OBP1
	b.Write(0xFF4A, 0x00) // WY
	b.Write(0xFF4B, 0x00) // WX
	b.Write(0xFFFF, 0x00) // IE
}

// SetButtons updates which joypad buttons are currently held.
func (m *Machine) SetButtons(btn Buttons) {
	if m.bus != nil {
		m.bus.SetJoypadState(btn.mask())
	}
}

// dmgPalette maps a 2-bit shade index to an RGBA color, lightest to
// darkest, matching the original DMG's four-shade green-gray LCD.
var dmgPalette = [4][4]byte{
	{0xE0, 0xF0, 0xD0, 0xFF},
	{0x88, 0xA0, 0x70, 0xFF},
	{0x48, 0x60, 0x40, 0xFF},
	{0x10, 0x18, 0x10, 0xFF},
}

// StepFrame runs the CPU/bus/PPU/timer until a full frame is ready and
// renders it into the RGBA framebuffer.
func (m *Machine) StepFrame() {
	m.runFrame()
	shades := m.bus.PPU().Framebuffer()
	for y := 0; y < 144; y++ {
		for x := 0; x < 160; x++ {
			c := dmgPalette[shades[y][x]&0x03]
			i := (y*160 + x) * 4
			copy(m.fb[i:i+4], c[:])
		}
	}
}

// StepFrameNoRender runs one frame's worth of CPU/bus/PPU/timer activity
// without converting the PPU's shade buffer to RGBA, for hosts (test
// runners) that only care about serial output or timing.
func (m *Machine) StepFrameNoRender() {
	m.runFrame()
}

func (m *Machine) runFrame() {
	if m.cpu == nil || m.bus == nil {
		return
	}
	p := m.bus.PPU()
	p.ClearFrameReady()
	for !p.FrameReady() {
		cycles := m.cpu.Step()
		m.bus.Step(cycles * 4)
	}
}

// Framebuffer returns the most recently rendered frame as tightly packed
// RGBA8888, row-major, 160x144.
func (m *Machine) Framebuffer() []byte { return m.fb[:] }

// ROMPath returns the path LoadROMFromFile was last called with, or "".
func (m *Machine) ROMPath() string { return m.romPath }

// SaveBattery returns the cartridge's external RAM contents for a host
// to persist, if the loaded cartridge is battery-backed (spec.md §6:
// persistence is a host responsibility, not core state).
func (m *Machine) SaveBattery() ([]byte, bool) {
	if m.bus == nil {
		return nil, false
	}
	bb, ok := m.bus.Cart().(cart.BatteryBacked)
	if !ok {
		return nil, false
	}
	return bb.SaveRAM(), true
}

// LoadBattery restores previously saved external RAM into the loaded
// cartridge, if it is battery-backed.
func (m *Machine) LoadBattery(data []byte) bool {
	if m.bus == nil {
		return false
	}
	bb, ok := m.bus.Cart().(cart.BatteryBacked)
	if !ok {
		return false
	}
	bb.LoadRAM(data)
	return true
}

// CPU exposes the underlying CPU for host-level tracing/debugging tools.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// Bus exposes the underlying bus for host-level tracing/debugging tools.
func (m *Machine) Bus() *bus.Bus { return m.bus }
