package ppu

// InterruptRequester is a callback signature to request IF bits (0:VBlank, 1:STAT, etc.).
type InterruptRequester func(bit int)

// LineInfo captures per-line render bookkeeping, exposed for tests and
// debugging tools.
type LineInfo struct {
	WinLine int
}

// PPU models VRAM/OAM, LCDC/STAT regs, LY/LYC, and the scanline-granular
// mode state machine, and produces a 160x144 framebuffer of 2-bit shades.
type PPU struct {
	// memory
	vram [0x2000]byte // 0x8000–0x9FFF
	oam  [0xA0]byte   // 0xFE00–0xFE9F

	// regs
	lcdc byte // FF40
	stat byte // FF41 (mode bits 0-1, coincidence flag bit2, enables bits3-6)
	scy  byte // FF42
	scx  byte // FF43
	ly   byte // FF44
	lyc  byte // FF45
	bgp  byte // FF47
	obp0 byte // FF48
	obp1 byte // FF49
	wy   byte // FF4A
	wx   byte // FF4B

	dot      int // dots within current line [0..455]
	mode3Len int // dots charged to mode 3 on the current line

	fb         [144][160]byte // resolved 2-bit shade per pixel
	frameReady bool
	lineRegs   [144]LineInfo

	req InterruptRequester
}

func New(req InterruptRequester) *PPU {
	return &PPU{req: req, mode3Len: 172}
}

// CPURead returns bytes for VRAM, OAM, and PPU IO registers. Returns 0xFF for others.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		// VRAM is inaccessible to CPU during mode 3 (return 0xFF)
		if (p.stat & 0x03) == 3 {
			return 0xFF
		}
		return p.vram[addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		// OAM is inaccessible during modes 2 and 3
		m := p.stat & 0x03
		if m == 2 || m == 3 {
			return 0xFF
		}
		return p.oam[addr-0xFE00]
	case addr == 0xFF40:
		return p.lcdc
	case addr == 0xFF41:
		// On DMG, bit7 reads as 1; bit6..3 are enables; bit2 coincidence; bit1..0 mode
		return 0x80 | (p.stat & 0x7F)
	case addr == 0xFF42:
		return p.scy
	case addr == 0xFF43:
		return p.scx
	case addr == 0xFF44:
		return p.ly
	case addr == 0xFF45:
		return p.lyc
	case addr == 0xFF47:
		return p.bgp
	case addr == 0xFF48:
		return p.obp0
	case addr == 0xFF49:
		return p.obp1
	case addr == 0xFF4A:
		return p.wy
	case addr == 0xFF4B:
		return p.wx
	default:
		return 0xFF
	}
}

// CPUWrite handles writes to VRAM, OAM, and PPU IO regs. Others are ignored here.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if (p.stat & 0x03) == 3 {
			return
		}
		p.vram[addr-0x8000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := p.stat & 0x03
		if m == 2 || m == 3 {
			return
		}
		p.oam[addr-0xFE00] = value
	case addr == 0xFF40:
		prev := p.lcdc
		p.lcdc = value
		if (p.lcdc&0x80) == 0 && (prev&0x80) != 0 {
			// Turning LCD off resets LY/mode
			p.ly = 0
			p.dot = 0
			p.setMode(0)
			p.updateLYC()
		} else if (p.lcdc&0x80) != 0 && (prev&0x80) == 0 {
			// Turning LCD on: start at LY=0, mode 2 (OAM)
			p.ly = 0
			p.dot = 0
			p.setMode(2)
			p.updateLYC()
		}
	case addr == 0xFF41:
		p.stat = (p.stat & 0x07) | (value & 0x78)
	case addr == 0xFF42:
		p.scy = value
	case addr == 0xFF43:
		p.scx = value
	case addr == 0xFF44:
		p.ly = 0
		p.dot = 0
		p.updateLYC()
		if (p.lcdc & 0x80) != 0 {
			p.setMode(2)
		}
	case addr == 0xFF45:
		p.lyc = value
		p.updateLYC()
	case addr == 0xFF47:
		p.bgp = value
	case addr == 0xFF48:
		p.obp0 = value
	case addr == 0xFF49:
		p.obp1 = value
	case addr == 0xFF4A:
		p.wy = value
	case addr == 0xFF4B:
		p.wx = value
	}
}

// Tick advances PPU state by the given number of dots (one dot per T-cycle).
func (p *PPU) Tick(cycles int) {
	if cycles <= 0 {
		return
	}
	for i := 0; i < cycles; i++ {
		if (p.lcdc & 0x80) == 0 { // LCD off
			continue
		}
		p.dot++

		var mode byte
		if p.ly >= 144 {
			mode = 1
		} else {
			switch {
			case p.dot < 80:
				mode = 2
			case p.dot < 80+p.mode3Len:
				mode = 3
			default:
				mode = 0
			}
		}
		p.setMode(mode)

		if p.dot >= 456 {
			p.dot = 0
			p.ly++
			if p.ly == 144 {
				p.frameReady = true
				if p.req != nil {
					p.req(0)
				} // VBlank IF
				if (p.stat & (1 << 4)) != 0 {
					if p.req != nil {
						p.req(1)
					}
				} // STAT VBlank
			} else if p.ly > 153 {
				p.ly = 0
			}
			p.updateLYC()
			// Set mode for new line start (dot=0)
			if p.ly >= 144 {
				p.setMode(1)
			} else {
				p.setMode(2)
			}
		}
	}
}

func (p *PPU) setMode(mode byte) {
	prev := p.stat & 0x03
	if prev == mode {
		return
	}
	p.stat = (p.stat &^ 0x03) | (mode & 0x03)
	switch mode {
	case 0: // HBlank
		if (p.stat & (1 << 3)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	case 2: // OAM
		if (p.stat & (1 << 5)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	case 3:
		p.enterMode3()
	}
}

// enterMode3 runs once per line, at the OAM→pixel-transfer transition: it
// selects sprites, sizes mode 3's variable length, and renders the whole
// scanline into the framebuffer immediately (spec.md §5 treats PPU timing
// as instruction/T-cycle granular, not sub-instruction, so resolving a
// line's pixels in one shot at mode-3 entry is equivalent to doing it
// dot-by-dot for every externally observable effect: STAT timing, the
// final framebuffer, and LY/LYC).
func (p *PPU) enterMode3() {
	sprites := p.scanOAMForLine(p.ly)
	windowActive := p.lcdc&0x20 != 0 && p.ly >= p.wy && int(p.wx)-7 < 160

	penalty := objPenalty(sprites, p.scx)
	length := 160 + 12 + int(p.scx%8)
	if windowActive {
		length += 6
	}
	length += penalty
	p.mode3Len = length

	if windowActive {
		p.lineRegs[p.ly] = LineInfo{WinLine: int(p.ly) - int(p.wy)}
	}

	p.renderScanline(sprites, windowActive)
}

type ppuVRAMView struct{ p *PPU }

func (v ppuVRAMView) Read(addr uint16) byte {
	if addr >= 0x8000 && addr <= 0x9FFF {
		return v.p.vram[addr-0x8000]
	}
	return 0xFF
}

func (p *PPU) renderScanline(sprites []Sprite, windowActive bool) {
	ly := p.ly
	mem := ppuVRAMView{p}

	var bgci [160]byte
	if p.lcdc&0x01 != 0 {
		mapBase := uint16(0x9800)
		if p.lcdc&0x08 != 0 {
			mapBase = 0x9C00
		}
		tileData8000 := p.lcdc&0x10 != 0
		bgci = RenderBGScanlineUsingFetcher(mem, mapBase, tileData8000, p.scx, p.scy, ly)
	}

	if windowActive {
		mapBase := uint16(0x9800)
		if p.lcdc&0x40 != 0 {
			mapBase = 0x9C00
		}
		tileData8000 := p.lcdc&0x10 != 0
		wxStart := int(p.wx) - 7
		winLine := byte(int(ly) - int(p.wy))
		winOut := RenderWindowScanlineUsingFetcher(mem, mapBase, tileData8000, wxStart, winLine)
		start := wxStart
		if start < 0 {
			start = 0
		}
		for x := start; x < 160; x++ {
			bgci[x] = winOut[x]
		}
	}

	var spriteOut [160]byte
	if p.lcdc&0x02 != 0 && len(sprites) > 0 {
		tall := p.lcdc&0x04 != 0
		spriteOut = ComposeSpriteLine(mem, sprites, ly, bgci, tall)
	}

	for x := 0; x < 160; x++ {
		var colorIdx byte
		var pal byte
		if spriteOut[x] != 0 {
			colorIdx = spriteOut[x] & 0x03
			if (spriteOut[x]>>2)&1 == 1 {
				pal = p.obp1
			} else {
				pal = p.obp0
			}
		} else {
			colorIdx = bgci[x]
			pal = p.bgp
		}
		p.fb[ly][x] = (pal >> (colorIdx * 2)) & 0x03
	}
}

func (p *PPU) updateLYC() {
	if p.ly == p.lyc {
		p.stat |= 1 << 2
		if (p.stat & (1 << 6)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	} else {
		p.stat &^= 1 << 2
	}
}

// Framebuffer returns the last-rendered frame as a 144x160 grid of 2-bit
// shade indices (0=lightest..3=darkest on the original DMG palette).
func (p *PPU) Framebuffer() [144][160]byte { return p.fb }

// FrameReady reports whether a full frame has completed since the last
// ClearFrameReady call.
func (p *PPU) FrameReady() bool { return p.frameReady }

// ClearFrameReady acknowledges the current frame, typically once the host
// has copied Framebuffer().
func (p *PPU) ClearFrameReady() { p.frameReady = false }

// LineRegs exposes the per-line window-row bookkeeping captured at mode-3
// entry, for tests and debugging.
func (p *PPU) LineRegs(ly int) LineInfo { return p.lineRegs[ly] }
