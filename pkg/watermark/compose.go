// Package watermark renders the per-user watermark badge that gets
// burned into published videos: the site logo with the uploader's
// @handle centered beneath it, on a transparent rounded-corner canvas.
package watermark

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Canvas layout. The badge is the logo plus a caption band below it.
const (
	paddingX     = 10
	paddingY     = 6
	gapLogoText  = 4
	textHeight   = 12
	cornerRadius = 12
)

// Compose renders the watermark PNG for a username. The caption always
// carries a single leading "@" regardless of how the name was passed in.
func Compose(logo image.Image, username string) ([]byte, error) {
	if logo == nil {
		return nil, fmt.Errorf("watermark: nil logo image")
	}

	tag := strings.TrimSpace(username)
	if !strings.HasPrefix(tag, "@") {
		tag = "@" + tag
	}

	logoW := logo.Bounds().Dx()
	logoH := logo.Bounds().Dy()

	width := logoW + paddingX*2
	height := logoH + paddingY*2 + gapLogoText + textHeight

	canvas := imaging.New(width, height, color.Transparent)
	canvas = imaging.Paste(canvas, logo, image.Pt((width-logoW)/2, paddingY))

	drawCaption(canvas, tag, width, paddingY+logoH+gapLogoText)
	roundCorners(canvas, cornerRadius)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("watermark: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawCaption renders white centered text into the caption band
// starting at bandTop. The face is double-struck one pixel apart to
// approximate a bold weight.
func drawCaption(dst *image.NRGBA, text string, width, bandTop int) {
	face := basicfont.Face7x13

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
	}

	textW := d.MeasureString(text).Ceil()
	x := (width - textW) / 2
	// Baseline sits at the bottom of the caption band, minus the part
	// of the glyphs that descends below it.
	y := bandTop + textHeight - (face.Height - face.Ascent)

	for _, dx := range []int{0, 1} {
		d.Dot = fixed.P(x+dx, y)
		d.DrawString(text)
	}
}

// roundCorners zeroes the alpha channel outside a rounded rectangle
// covering the full canvas. The radius is clamped to half the smaller
// dimension.
func roundCorners(img *image.NRGBA, radius int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if min := minInt(w, h) / 2; radius > min {
		radius = min
	}
	if radius <= 0 {
		return
	}

	r2 := radius * radius
	corners := [4][2]int{
		{radius - 1, radius - 1},         // top-left center
		{w - radius, radius - 1},         // top-right
		{radius - 1, h - radius},         // bottom-left
		{w - radius, h - radius},         // bottom-right
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			inCornerBox := (x < radius || x >= w-radius) && (y < radius || y >= h-radius)
			if !inCornerBox {
				continue
			}
			outside := true
			for _, c := range corners {
				dx, dy := x-c[0], y-c[1]
				if dx*dx+dy*dy <= r2 {
					outside = false
					break
				}
			}
			if outside {
				img.Pix[img.PixOffset(x, y)+3] = 0
			}
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
