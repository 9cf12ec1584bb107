package cart

// MBC1 implements cart types 0x01-0x03: ROM banking up to 2 MiB plus up to
// 32 KiB of external RAM, selected by a 5-bit bank register, a 2-bit
// secondary register, and a banking-mode flag (spec.md §4.1).
type MBC1 struct {
	rom []byte
	ram []byte

	romBanks int // total bank count, for the modulo in effectiveROMBank

	low5       byte // 0x2000-0x3FFF register, stored as written (remap happens when computing the effective bank)
	secondary  byte // 0x4000-0x5FFF register: RAM bank (mode 1) or ROM high bits (mode 0)
	ramEnabled bool
	mode       byte // 0: simple, 1: advanced
}

func NewMBC1(rom []byte, ramSize int) *MBC1 {
	m := &MBC1{rom: rom, low5: 1}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	m.romBanks = len(rom) / 0x4000
	if m.romBanks == 0 {
		m.romBanks = 1
	}
	return m
}

func (m *MBC1) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		bank := int(m.fixedROMBank())
		off := bank*0x4000 + int(addr)
		if off >= 0 && off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr < 0x8000:
		bank := int(m.switchableROMBank())
		off := bank*0x4000 + int(addr-0x4000)
		if off >= 0 && off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		off := m.ramBank()*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC1) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		m.low5 = value
	case addr < 0x6000:
		m.secondary = value & 0x03
	case addr < 0x8000:
		m.mode = value & 0x01
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		off := m.ramBank()*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

func (m *MBC1) ramBank() int {
	if m.mode == 1 {
		return int(m.secondary)
	}
	return 0
}

// fixedROMBank is the 0x0000-0x3FFF window: bank 0 in simple mode, or
// (secondary<<5) mod bank-count in advanced mode (spec.md §4.1).
func (m *MBC1) fixedROMBank() byte {
	if m.mode == 0 {
		return 0
	}
	return byte((int(m.secondary) << 5) % m.romBanks)
}

// switchableROMBank is the 0x4000-0x7FFF window: (high2<<5)|low5 where
// high2 is the secondary register in simple mode and 0 in advanced mode; if
// the combined value's low five bits are zero, bit 0 is forced (this is why
// writing 0x20 to the low register selects bank 0x21, not 0x20); the result
// is taken modulo the cart's actual bank count (spec.md §4.1).
func (m *MBC1) switchableROMBank() byte {
	var high2 byte
	if m.mode == 0 {
		high2 = m.secondary
	}
	bank := (high2 << 5) | m.low5
	if bank&0x1F == 0 {
		bank |= 1
	}
	return byte(int(bank) % m.romBanks)
}
