package ppu

import "sort"

// Sprite is one OAM entry selected for the current scanline, already
// converted from raw OAM bytes to screen-space coordinates (X = rawX-8,
// Y = rawY-16) so composition and object-penalty math never needs the
// hardware bias applied more than once.
type Sprite struct {
	X, Y     int
	Tile     byte
	Attr     byte
	OAMIndex int
}

// scanOAMForLine selects up to 10 OAM entries whose vertical span covers
// ly, preserving OAM order (spec.md §4.4 mode-2 OAM scan).
func (p *PPU) scanOAMForLine(ly byte) []Sprite {
	height := 8
	if p.lcdc&0x04 != 0 {
		height = 16
	}
	var sel []Sprite
	for i := 0; i < 40; i++ {
		base := i * 4
		rawY := p.oam[base]
		rawX := p.oam[base+1]
		tile := p.oam[base+2]
		attr := p.oam[base+3]
		y := int(rawY) - 16
		if int(ly) >= y && int(ly) < y+height {
			sel = append(sel, Sprite{X: int(rawX) - 8, Y: y, Tile: tile, Attr: attr, OAMIndex: i})
			if len(sel) == 10 {
				break
			}
		}
	}
	return sel
}

// objPenalty computes the mode-3 dot penalty contributed by the selected
// sprites (spec.md §4.4 "Object (mode-3) penalty").
func objPenalty(sprites []Sprite, scx byte) int {
	penalty := 0
	seenTiles := map[int]bool{}
	for _, sp := range sprites {
		if sp.X == -8 { // raw OAM X == 0
			penalty += 11
			continue
		}
		px := sp.X
		if px < 0 || px >= 160 {
			continue
		}
		penalty += 6
		xWithinTile := (int(scx) + px) % 8
		tileSlot := (int(scx) + px) / 8
		if !seenTiles[tileSlot] {
			seenTiles[tileSlot] = true
			if v := 7 - xWithinTile - 2; v > 0 {
				penalty += v
			}
		}
	}
	return penalty
}

// ComposeSpriteLine renders the sprite layer for one scanline. Each
// output byte packs a nonzero 2-bit color index in bits 0-1 and the
// OBP1-select flag in bit 2; zero means no opaque sprite pixel (or one
// hidden behind a nonzero BG pixel per the OBJ-to-BG priority bit).
// Sprites are considered in ascending X, ties broken by ascending OAM
// index — lowest X (then lowest OAM index) draws on top.
func ComposeSpriteLine(mem VRAMReader, sprites []Sprite, ly byte, bgci [160]byte, tall bool) [160]byte {
	var out [160]byte
	var claimed [160]bool
	height := 8
	if tall {
		height = 16
	}

	ordered := make([]Sprite, len(sprites))
	copy(ordered, sprites)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].X != ordered[j].X {
			return ordered[i].X < ordered[j].X
		}
		return ordered[i].OAMIndex < ordered[j].OAMIndex
	})

	for _, sp := range ordered {
		row := int(ly) - sp.Y
		if row < 0 || row >= height {
			continue
		}
		yflip := sp.Attr&(1<<6) != 0
		if yflip {
			row = height - 1 - row
		}
		tile := sp.Tile
		if tall {
			tile &^= 1
			if row >= 8 {
				tile |= 1
				row -= 8
			}
		}
		base := uint16(0x8000) + uint16(tile)*16 + uint16(row)*2
		lo := mem.Read(base)
		hi := mem.Read(base + 1)

		xflip := sp.Attr&(1<<5) != 0
		priority := sp.Attr&(1<<7) != 0
		palSel := (sp.Attr >> 4) & 1

		for px := 0; px < 8; px++ {
			var bitPos byte
			if xflip {
				bitPos = byte(px)
			} else {
				bitPos = byte(7 - px)
			}
			ci := ((hi>>bitPos)&1)<<1 | ((lo >> bitPos) & 1)
			if ci == 0 {
				continue
			}
			screenX := sp.X + px
			if screenX < 0 || screenX >= 160 {
				continue
			}
			if claimed[screenX] {
				continue // a higher-priority sprite already claimed this pixel
			}
			claimed[screenX] = true
			if priority && bgci[screenX] != 0 {
				continue // BG-over-OBJ: sprite stays hidden here, but the pixel is still claimed
			}
			out[screenX] = ci | (palSel << 2)
		}
	}
	return out
}
