package cart

// Cartridge is the minimal interface the Bus needs for ROM/RAM banking.
// Addresses are CPU addresses: Read/Write cover both ROM (0x0000-0x7FFF,
// where writes are bank-control registers) and external RAM (0xA000-0xBFFF).
type Cartridge interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// BatteryBacked is implemented by MBC2, MBC3 and MBC5. MBC1 and ROMOnly do
// not implement it, so MBC1 external RAM is not saved or restored.
// The Bus has no notion of "battery backed" — this is exposed so a host
// shim can save/restore a .sav file across runs (spec.md §6: persistence
// is a host responsibility, not core state).
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// NewCartridge validates the header and constructs the banking
// implementation selected by the cart-type byte. A header validation
// failure is the LoadFailed error kind from spec.md §7; it is returned
// rather than silently substituting a ROM-only cartridge, so the host can
// surface it to the caller instead of running a broken image.
func NewCartridge(rom []byte) (Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}
	switch h.CartType {
	case 0x00:
		return NewROMOnly(rom), nil
	case 0x01, 0x02, 0x03:
		return NewMBC1(rom, h.RAMSizeBytes), nil
	case 0x05, 0x06:
		return NewMBC2(rom), nil
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return NewMBC3(rom, h.RAMSizeBytes), nil
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return NewMBC5(rom, h.RAMSizeBytes), nil
	default:
		return nil, loadErrorf("unsupported cart type 0x%02X", h.CartType)
	}
}
