package wad2pic

// Options collects every knob the renderer understands. The CLI fills it in;
// the pipeline treats it as an immutable value.
type Options struct {
	Margins    int     // padding around the rendered geometry, in pixels
	Gamma      float64 // final gamma correction; <1 lightens, >1 darkens
	CoefX      float64 // horizontal wall-projection coefficient
	CoefY      float64 // vertical wall-projection coefficient
	Rotate     int     // map rotation in degrees, clockwise
	ScaleY     float64 // isometric Y compression, usually 0.5-0.9
	Shrink     int     // integer shrink factor for huge maps
	Difficulty int     // skill bitmask things are filtered by
	Deathmatch bool    // swap player starts for deathmatch starts
	ZStyle     bool    // extended (Hexen-like) linedef/thing records
	Output     string  // output filename; empty derives from WAD and map name
	HideInfo   bool    // suppress the statistics overlay
	Verbose    bool
	Debug      bool // propagate per-level panics instead of recovering
	Workers    int  // parallel level renders for "ALL"; <=0 means 1
}

// DefaultOptions returns the defaults the CLI documents: a 30 degree
// rotation with mild Y compression and a lightening gamma.
func DefaultOptions() Options {
	return Options{
		Margins:    300,
		Gamma:      0.7,
		CoefX:      0,
		CoefY:      0.8,
		Rotate:     30,
		ScaleY:     0.8,
		Shrink:     1,
		Difficulty: 4,
		Verbose:    true,
		Workers:    1,
	}
}
