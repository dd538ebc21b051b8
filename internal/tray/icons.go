package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
)

// IconSize is the edge length of the generated icon. Larger icons scale
// better on high-DPI displays.
const IconSize = 64

// BrandColor fills the icon's disc.
var BrandColor = color.NRGBA{R: 41, G: 98, B: 255, A: 255}

var (
	appIconOnce sync.Once
	appIcon     []byte
)

// AppIcon returns the PNG used for the tray and the window.
func AppIcon() []byte {
	appIconOnce.Do(func() {
		appIcon = createIcon(IconSize, BrandColor)
	})
	return appIcon
}

// createIcon draws an anti-aliased disc of color c with a white "T" on a
// transparent background.
func createIcon(size int, c color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))

	center := float64(size-1) / 2
	radius := float64(size)/2 - 2

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) - center
			dy := float64(y) - center
			d := math.Sqrt(dx*dx + dy*dy)

			switch {
			case d <= radius-0.5:
				img.SetNRGBA(x, y, c)
			case d < radius+0.5:
				edge := c
				edge.A = uint8(float64(c.A) * (radius + 0.5 - d))
				img.SetNRGBA(x, y, edge)
			}
		}
	}

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	fill(img, scaled(size, 0.28, 0.28, 0.72, 0.38), white) // bar
	fill(img, scaled(size, 0.44, 0.28, 0.56, 0.74), white) // stem

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func scaled(size int, x0, y0, x1, y1 float64) image.Rectangle {
	s := float64(size)
	return image.Rect(int(x0*s), int(y0*s), int(x1*s), int(y1*s))
}

func fill(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}
