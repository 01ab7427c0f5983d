package mapping

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	DefaultBands    = 20
	DefaultBandSize = 5000

	DefaultStartColor  = "#fde8e4" // lightest
	DefaultMiddleColor = "#cd5c5c"
	DefaultEndColor    = "#3d0b0b" // darkest
)

// Band is one color step. A count belongs to the first band whose Limit is >= the count.
type Band struct {
	Index int    `json:"index"` // 1-based
	Limit int    `json:"limit"`
	Var   string `json:"var"` // CSS custom property, e.g. --color-step-7
	Color string `json:"color"`
}

type PaletteOptions struct {
	Bands    int
	BandSize int
	Start    string
	Middle   string
	End      string
}

type Palette struct {
	Bands []Band
}

// NewPalette builds the band table.
//
// Colors run start->middle->end along one even scale over the bands, blended in
// CIE-Lab so perceived lightness changes evenly. Adjacent bands never share a color.
func NewPalette(opts PaletteOptions) (Palette, error) {
	if opts.Bands <= 0 {
		opts.Bands = DefaultBands
	}
	if opts.BandSize <= 0 {
		opts.BandSize = DefaultBandSize
	}
	start, err := parseColor("start", opts.Start, DefaultStartColor)
	if err != nil {
		return Palette{}, err
	}
	middle, err := parseColor("middle", opts.Middle, DefaultMiddleColor)
	if err != nil {
		return Palette{}, err
	}
	end, err := parseColor("end", opts.End, DefaultEndColor)
	if err != nil {
		return Palette{}, err
	}

	n := opts.Bands
	bands := make([]Band, n)
	for i := range n {
		var c colorful.Color
		if t := fraction(i, n); t <= 0.5 {
			c = start.BlendLab(middle, t*2)
		} else {
			c = middle.BlendLab(end, (t-0.5)*2)
		}
		bands[i] = Band{
			Index: i + 1,
			Limit: (i + 1) * opts.BandSize,
			Var:   fmt.Sprintf("--color-step-%d", i+1),
			Color: c.Clamped().Hex(),
		}
	}
	return Palette{Bands: bands}, nil
}

// DefaultPalette is the 20 x 5000 palette with the default colors.
func DefaultPalette() Palette {
	p, err := NewPalette(PaletteOptions{})
	if err != nil {
		panic(err)
	}
	return p
}

// fraction maps i in [0, n-1] onto [0, 1].
func fraction(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

func parseColor(name, s, def string) (colorful.Color, error) {
	if s == "" {
		s = def
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid %s color %q (expected #rrggbb)", name, s)
	}
	return c, nil
}

// BandFor returns the first band whose limit is >= steps, or the last band
// when steps exceeds every limit.
func (p Palette) BandFor(steps int) Band {
	if len(p.Bands) == 0 {
		return Band{}
	}
	for _, b := range p.Bands {
		if steps <= b.Limit {
			return b
		}
	}
	return p.Bands[len(p.Bands)-1]
}

// Colors returns the hex color per band, ordered by band index.
func (p Palette) Colors() []string {
	out := make([]string, len(p.Bands))
	for i, b := range p.Bands {
		out[i] = b.Color
	}
	return out
}

// Range reports the counts covered by the band at position i. The last band
// also absorbs everything above its limit, which open reports.
func (p Palette) Range(i int) (lo, hi int, open bool) {
	if i < 0 || i >= len(p.Bands) {
		return 0, 0, false
	}
	if i > 0 {
		lo = p.Bands[i-1].Limit + 1
	}
	return lo, p.Bands[i].Limit, i == len(p.Bands)-1
}
