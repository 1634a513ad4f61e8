// Package degrade produces the locked substitute for a sticker image: a
// strong Gaussian blur with a fixed overlay banner. Output is deterministic
// for a given input and configuration so gating behavior is testable
// byte-for-byte.
package degrade

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultLabel is the overlay text composited onto every locked render.
const DefaultLabel = "LOCKED - PAY TO UNLOCK"

type Options struct {
	// BlurSigma controls the Gaussian blur strength.
	BlurSigma float64
	// Label overrides DefaultLabel when non-empty.
	Label string
}

var (
	bannerFill = color.NRGBA{R: 0, G: 0, B: 0, A: 176}
	labelFill  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

const bannerHeight = 48

// Render decodes src, blurs it, composites the banner, and re-encodes as
// PNG.
func Render(src []byte, opts Options) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	sigma := opts.BlurSigma
	if sigma <= 0 {
		sigma = 12
	}
	canvas := imaging.Blur(img, sigma)

	drawBanner(canvas, opts.label())

	out := &bytes.Buffer{}
	if err := png.Encode(out, canvas); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

func (o Options) label() string {
	if o.Label != "" {
		return o.Label
	}
	return DefaultLabel
}

func drawBanner(canvas *image.NRGBA, label string) {
	bounds := canvas.Bounds()
	top := bounds.Min.Y + (bounds.Dy()-bannerHeight)/2
	if top < bounds.Min.Y {
		top = bounds.Min.Y
	}
	band := image.Rect(bounds.Min.X, top, bounds.Max.X, min(top+bannerHeight, bounds.Max.Y))
	draw.Draw(canvas, band, image.NewUniform(bannerFill), image.Point{}, draw.Over)

	face := basicfont.Face7x13
	width := font.MeasureString(face, label)
	x := fixed.I(bounds.Min.X) + (fixed.I(bounds.Dx())-width)/2
	y := fixed.I(top + bannerHeight/2 + face.Height/2 - face.Descent)

	d := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(labelFill),
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: y},
	}
	d.DrawString(label)
}
