package source

import (
	"bytes"
	"image"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/pagestack/pkg/errors"
)

// MaxImagePixels bounds the pixel count of a single decoded image.
const MaxImagePixels = 1 << 26

type imagePage struct {
	img    image.Image
	data   []byte
	format string
}

// ImageSource is an image-backed source. Every page reports the size of the
// first image; renderers fit each image into that box keeping its aspect
// ratio.
type ImageSource struct {
	pages  []imagePage
	width  float64
	height float64
}

// OpenImages decodes the given images in order. Animated GIFs contribute
// one page per frame. One pixel maps to one point.
func OpenImages(ins []Input) (*ImageSource, error) {
	s := &ImageSource{}
	for _, in := range ins {
		pages, err := decodeImage(in)
		if err != nil {
			return nil, err
		}
		s.pages = append(s.pages, pages...)
	}
	if len(s.pages) > 0 {
		b := s.pages[0].img.Bounds()
		s.width, s.height = float64(b.Dx()), float64(b.Dy())
	}
	return s, nil
}

// checkImageSize reads the image header and rejects images whose declared
// dimensions exceed [MaxImagePixels] before any pixel data is allocated.
func checkImageSize(in Input) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Data))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode image %s", in.Name)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return errors.New(errors.ErrCodeInvalidInput,
			"image %s is %dx%d pixels, more than the %d pixel limit", in.Name, cfg.Width, cfg.Height, MaxImagePixels)
	}
	return nil
}

func decodeImage(in Input) ([]imagePage, error) {
	if err := checkImageSize(in); err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(in.Name))
	if ext == ".gif" {
		return decodeGIF(in)
	}

	img, format, err := image.Decode(bytes.NewReader(in.Data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode image %s", in.Name)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "image %s has no pixels", in.Name)
	}

	switch format {
	case "jpeg":
		return []imagePage{{img: img, data: in.Data, format: "jpg"}}, nil
	case "png":
		return []imagePage{{img: img, data: in.Data, format: "png"}}, nil
	}
	data, err := encodePNG(img)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "re-encode %s as PNG", in.Name)
	}
	return []imagePage{{img: img, data: data, format: "png"}}, nil
}

// decodeGIF composes every frame of a GIF onto a full-size canvas so that
// delta frames render as the viewer would show them.
func decodeGIF(in Input) ([]imagePage, error) {
	g, err := gif.DecodeAll(bytes.NewReader(in.Data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode GIF %s", in.Name)
	}
	if len(g.Image) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "GIF %s has no frames", in.Name)
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)

	pages := make([]imagePage, 0, len(g.Image))
	for i, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		snapshot := image.NewRGBA(bounds)
		copy(snapshot.Pix, canvas.Pix)

		data, err := encodePNG(snapshot)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode frame %d of %s", i+1, in.Name)
		}
		pages = append(pages, imagePage{img: snapshot, data: data, format: "png"})

		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		}
	}
	return pages, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ImageSource) Kind() Kind    { return KindImage }
func (s *ImageSource) NumPages() int { return len(s.pages) }
func (s *ImageSource) Close() error  { return nil }

// PageSize returns the shared page box in points.
func (s *ImageSource) PageSize(index int) (float64, float64, error) {
	if err := s.check(index); err != nil {
		return 0, 0, err
	}
	return s.width, s.height, nil
}

// Image returns the decoded image of page index.
func (s *ImageSource) Image(index int) (image.Image, error) {
	if err := s.check(index); err != nil {
		return nil, err
	}
	return s.pages[index].img, nil
}

// Encoded returns the PNG or JPEG bytes of page index.
func (s *ImageSource) Encoded(index int) ([]byte, string, error) {
	if err := s.check(index); err != nil {
		return nil, "", err
	}
	p := s.pages[index]
	return p.data, p.format, nil
}

func (s *ImageSource) check(index int) error {
	if index < 0 || index >= len(s.pages) {
		return errors.New(errors.ErrCodeInvalidInput, "page index %d out of range [0, %d)", index, len(s.pages))
	}
	return nil
}
