package sink

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/pagestack/pkg/assemble"
	"github.com/matzehuels/pagestack/pkg/errors"
	"github.com/matzehuels/pagestack/pkg/layout"
	"github.com/matzehuels/pagestack/pkg/render"
	"github.com/matzehuels/pagestack/pkg/source"
)

// Sheet separation in the preview image, in pixels.
const previewGap = 16

var (
	previewBackground  = color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	placeholderFill    = color.RGBA{R: 0xf4, G: 0xf4, B: 0xf4, A: 0xff}
	placeholderOutline = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
)

// PNGRenderer draws every sheet into one tall preview image.
type PNGRenderer struct {
	src   source.Source
	style render.LabelStyle
	scale float64

	sheets []*image.RGBA
	face   font.Face
}

func newPNGRenderer(src source.Source, c config) *PNGRenderer {
	return &PNGRenderer{src: src, style: c.style, scale: c.scale}
}

// Begin implements [assemble.Renderer].
func (r *PNGRenderer) Begin(sheets int, width, height float64) error {
	if r.sheets != nil {
		return errors.New(errors.ErrCodeRender, "PNG renderer already started")
	}
	w := max(1, int(math.Ceil(width*r.scale)))
	h := max(1, int(math.Ceil(height*r.scale)))
	if int64(w)*int64(h)*int64(sheets) > 1<<28 {
		return errors.New(errors.ErrCodeRender, "preview of %d sheets at %dx%d px is too large; lower the scale", sheets, w, h)
	}

	r.sheets = make([]*image.RGBA, sheets)
	for i := range r.sheets {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
		r.sheets[i] = img
	}
	r.face = labelFace(r.style.Size * r.scale)
	return nil
}

// labelFace returns the Go Regular face at size px, or the fixed 7x13
// bitmap face if the TrueType font cannot be loaded.
func labelFace(size float64) font.Face {
	f, err := opentype.Parse(goregular.TTF)
	if err == nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
		if err == nil {
			return face
		}
	}
	return basicfont.Face7x13
}

func (r *PNGRenderer) sheet(i int) (*image.RGBA, error) {
	if r.sheets == nil {
		return nil, errors.New(errors.ErrCodeRender, "PNG renderer not started")
	}
	if err := checkSheet(i, len(r.sheets)); err != nil {
		return nil, err
	}
	return r.sheets[i], nil
}

func (r *PNGRenderer) px(rect layout.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(rect.X0*r.scale)), int(math.Round(rect.Y0*r.scale)),
		int(math.Round(rect.X1*r.scale)), int(math.Round(rect.Y1*r.scale)),
	)
}

// DrawPage implements [assemble.Renderer].
func (r *PNGRenderer) DrawPage(sheet, page int, dest layout.Rect) error {
	dst, err := r.sheet(sheet)
	if err != nil {
		return err
	}
	cell := r.px(dest)

	if ib, ok := r.src.(source.ImageBacked); ok {
		img, err := ib.Image(page)
		if err != nil {
			return err
		}
		b := img.Bounds()
		x, y, w, h := fit(float64(b.Dx()), float64(b.Dy()),
			float64(cell.Min.X), float64(cell.Min.Y), float64(cell.Dx()), float64(cell.Dy()))
		target := image.Rect(int(x), int(y), int(x+w), int(y+h))
		draw.CatmullRom.Scale(dst, target, img, b, draw.Over, nil)
		return nil
	}

	inner := cell.Inset(max(1, int(4*r.scale)))
	draw.Draw(dst, inner, image.NewUniform(placeholderFill), image.Point{}, draw.Src)
	strokeRect(dst, inner, placeholderOutline)
	return nil
}

func strokeRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.Set(x, r.Min.Y, c)
		dst.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.Set(r.Min.X, y, c)
		dst.Set(r.Max.X-1, y, c)
	}
}

// DrawLabel implements [assemble.Renderer].
func (r *PNGRenderer) DrawLabel(sheet int, label assemble.Label) error {
	dst, err := r.sheet(sheet)
	if err != nil {
		return err
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(r.style.Color),
		Face: r.face,
	}
	x := label.At.X * r.scale
	if label.Align == layout.AlignRight {
		x -= float64(d.MeasureString(label.Text)) / 64
	}
	d.Dot = fixed.P(int(math.Round(x)), int(math.Round(label.At.Y*r.scale)))
	d.DrawString(label.Text)
	return nil
}

// Finish implements [assemble.Renderer].
func (r *PNGRenderer) Finish() (assemble.Document, error) {
	if r.sheets == nil {
		return nil, errors.New(errors.ErrCodeRender, "PNG renderer not started")
	}

	var canvas *image.RGBA
	if len(r.sheets) == 0 {
		canvas = image.NewRGBA(image.Rect(0, 0, 1, 1))
	} else {
		sw, sh := r.sheets[0].Bounds().Dx(), r.sheets[0].Bounds().Dy()
		n := len(r.sheets)
		canvas = image.NewRGBA(image.Rect(0, 0, sw+2*previewGap, n*sh+(n+1)*previewGap))
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(previewBackground), image.Point{}, draw.Src)
		for i, s := range r.sheets {
			at := image.Pt(previewGap, previewGap+i*(sh+previewGap))
			draw.Draw(canvas, s.Bounds().Add(at), s, image.Point{}, draw.Src)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "encode PNG")
	}
	return &bytesDocument{data: buf.Bytes(), sheets: len(r.sheets), contentType: render.FormatPNG.ContentType()}, nil
}
