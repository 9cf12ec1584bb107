package emu

// Config holds host settings passed to New. Machine stores them but reads
// neither field: it logs no instruction trace and does no frame throttling.
type Config struct {
	Trace    bool // CPU instruction logging flag; not acted on by Machine
	LimitFPS bool // ~60 Hz throttling flag; not acted on by Machine
}
