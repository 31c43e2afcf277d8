package textures

import (
	"image"
	"image/color"
)

// Usage-keyed base colors for synthesized placeholders. "other" and unknown
// usages get the classic missing-texture magenta.
var fallbackColors = map[string]color.RGBA{
	UsageBlock:  {R: 0x8a, G: 0x8a, B: 0x8a, A: 0xff},
	UsageItem:   {R: 0xc8, G: 0xa0, B: 0x32, A: 0xff},
	UsageEntity: {R: 0x50, G: 0x96, B: 0x50, A: 0xff},
}

var fallbackDefault = color.RGBA{R: 0xd0, G: 0x00, B: 0xd0, A: 0xff}

// fallbackImage synthesizes the deterministic placeholder used for missing
// or corrupt sources: a solid usage color with a fixed 2x2 checker dither.
func fallbackImage(usage string, size int) *image.RGBA {
	if size < 1 {
		size = 16
	}
	base, ok := fallbackColors[usage]
	if !ok {
		base = fallbackDefault
	}
	dark := color.RGBA{
		R: base.R - base.R/4,
		G: base.G - base.G/4,
		B: base.B - base.B/4,
		A: 0xff,
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/2+y/2)%2 == 0 {
				img.SetRGBA(x, y, base)
			} else {
				img.SetRGBA(x, y, dark)
			}
		}
	}
	return img
}
