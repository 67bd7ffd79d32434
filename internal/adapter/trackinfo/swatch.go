package trackinfo

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

// maxSamples bounds how many pixels are inspected per image.
const maxSamples = 96 * 96

// swatch is one quantized color and how many pixels fell into it.
type swatch struct {
	color      colorful.Color
	population int
	sat, light float64
}

// target describes the swatch a hint entry is looking for.
type target struct {
	minSat, wantSat, maxSat       float64
	minLight, wantLight, maxLight float64
}

var (
	targetVibrant      = target{0.35, 1, 1, 0.3, 0.5, 0.7}
	targetLightVibrant = target{0.35, 1, 1, 0.55, 0.74, 1}
	targetMuted        = target{0, 0.3, 0.4, 0.3, 0.5, 0.7}
	targetDarkMuted    = target{0, 0.3, 0.4, 0, 0.26, 0.45}
)

// Score weights: lightness matters most, population least.
const (
	weightSat   = 3.0
	weightLight = 6.5
	weightPop   = 0.5
)

// ExtractHint finds vibrant and muted colors in img. It returns nil when no
// swatch matches any target, for example on a blank image.
func ExtractHint(img image.Image) *domain.TrackColorHint {
	swatches := quantize(img)
	if len(swatches) == 0 {
		return nil
	}
	maxPop := 0
	for _, s := range swatches {
		maxPop = max(maxPop, s.population)
	}

	used := make(map[int]bool)
	pick := func(t target) string {
		best, bestScore := -1, math.Inf(-1)
		for i, s := range swatches {
			if used[i] || s.sat < t.minSat || s.sat > t.maxSat || s.light < t.minLight || s.light > t.maxLight {
				continue
			}
			score := weightSat*(1-math.Abs(s.sat-t.wantSat)) +
				weightLight*(1-math.Abs(s.light-t.wantLight)) +
				weightPop*float64(s.population)/float64(maxPop)
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			return ""
		}
		used[best] = true
		return swatches[best].color.Clamped().Hex()
	}

	hint := &domain.TrackColorHint{
		Vibrant:      pick(targetVibrant),
		LightVibrant: pick(targetLightVibrant),
		Muted:        pick(targetMuted),
		DarkMuted:    pick(targetDarkMuted),
	}
	if hint.IsEmpty() {
		return nil
	}
	return hint
}

// quantize buckets pixels by their top five bits per channel and averages
// each bucket. Transparent pixels are ignored.
func quantize(img image.Image) []swatch {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}
	step := max(1, int(math.Ceil(math.Sqrt(float64(b.Dx()*b.Dy())/maxSamples))))

	type bucket struct {
		r, g, b float64
		n       int
	}
	buckets := make(map[uint16]*bucket)
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			r8, g8, b8 := c.RGB255()
			key := uint16(r8>>3)<<10 | uint16(g8>>3)<<5 | uint16(b8>>3)
			bk := buckets[key]
			if bk == nil {
				bk = &bucket{}
				buckets[key] = bk
			}
			bk.r += c.R
			bk.g += c.G
			bk.b += c.B
			bk.n++
		}
	}

	out := make([]swatch, 0, len(buckets))
	for _, bk := range buckets {
		n := float64(bk.n)
		c := colorful.Color{R: bk.r / n, G: bk.g / n, B: bk.b / n}
		_, s, l := c.Hsl()
		out = append(out, swatch{color: c, population: bk.n, sat: s, light: l})
	}
	return out
}
