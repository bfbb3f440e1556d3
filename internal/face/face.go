// Package face draws a clock face for a DateTime into an image, sized like the common 128x64 monochrome OLED
// modules so the same layout can be pushed to one.
package face

import (
	"fmt"
	"image"
	"image/color"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"

	"github.com/ajanata/ds3231/ds3231"
)

const (
	Width  = 128
	Height = 64
)

var (
	Background = color.RGBA{0x00, 0x00, 0x00, 0xFF}
	Foreground = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
)

// Display is a displayer that draws into an RGBA image.
type Display struct {
	img *image.RGBA
}

func NewDisplay(width, height int16) *Display {
	return &Display{img: image.NewRGBA(image.Rect(0, 0, int(width), int(height)))}
}

func (d *Display) Size() (x, y int16) {
	b := d.img.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

// SetPixel ignores pixels outside the image, glyphs near the border may overhang.
func (d *Display) SetPixel(x, y int16, c color.RGBA) {
	d.img.SetRGBA(int(x), int(y), c)
}

func (d *Display) Display() error {
	return nil
}

func (d *Display) Image() *image.RGBA {
	return d.img
}

func (d *Display) Fill(c color.RGBA) {
	w, h := d.Size()
	for y := int16(0); y < h; y++ {
		for x := int16(0); x < w; x++ {
			d.SetPixel(x, y, c)
		}
	}
}

// Draw renders the time of day on the first line and the date on the second.
func Draw(d *Display, dt ds3231.DateTime) error {
	d.Fill(Background)
	tinyfont.WriteLine(d, &freemono.Regular12pt7b, 2, 24,
		fmt.Sprintf("%02d:%02d:%02d", dt.Hour, dt.Minute, dt.Second), Foreground)
	tinyfont.WriteLine(d, &freemono.Regular9pt7b, 4, 52,
		fmt.Sprintf("%d-%02d-%02d", dt.Time().Year(), dt.Month, dt.Day), Foreground)
	return d.Display()
}

// Render draws dt on a new Width x Height image.
func Render(dt ds3231.DateTime) (*image.RGBA, error) {
	d := NewDisplay(Width, Height)
	if err := Draw(d, dt); err != nil {
		return nil, err
	}
	return d.Image(), nil
}
