package captcha

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math/rand"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	imageWidth  = 160
	imageHeight = 60
)

// BasicRenderer draws the challenge answer onto a noisy background
// using the bitmap font from golang.org/x/image/font/basicfont. It exists so the
// captcha bridge is usable and testable out of the box; a deployment
// wanting a harder-to-OCR image supplies its own Renderer.
type BasicRenderer struct{}

func NewBasicRenderer() BasicRenderer {
	return BasicRenderer{}
}

func (BasicRenderer) Render(answer string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, imageWidth, imageHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	addNoise(img)

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(16, imageHeight/2+5),
	}
	for _, r := range answer {
		drawer.DrawString(string(r))
		drawer.Dot.X += fixed.I(6 + rand.Intn(8))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addNoise(img *image.RGBA) {
	bounds := img.Bounds()
	for i := 0; i < 120; i++ {
		x := rand.Intn(bounds.Dx())
		y := rand.Intn(bounds.Dy())
		img.Set(x, y, color.Gray{Y: uint8(rand.Intn(200))})
	}
}
