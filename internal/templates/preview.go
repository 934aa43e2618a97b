package templates

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"log/slog"
	"path"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/webp"

	"github.com/RafaArmero1993/MentorIA/internal/pagination"
)

// Preview dimensions, A4 portrait.
const (
	previewWidth  = 420
	previewHeight = 594
	previewMargin = 24
	blockGap      = 8
)

var previewExtensions = []string{".png", ".jpg", ".jpeg"}

var (
	colorPage    = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	colorHeader  = color.NRGBA{R: 43, G: 108, B: 176, A: 255}
	colorLabel   = color.NRGBA{R: 26, G: 54, B: 93, A: 255}
	colorText    = color.NRGBA{R: 203, G: 213, B: 224, A: 255}
	colorExample = color.NRGBA{R: 154, G: 230, B: 180, A: 255}
	colorImage   = color.NRGBA{R: 144, G: 205, B: 244, A: 255}
	colorQR      = color.NRGBA{R: 45, G: 55, B: 72, A: 255}
)

// loadPreviews fills c.previews with a provided image for each template, or
// a schematic rendering of its components when none is provided.
func (c *Catalog) loadPreviews(fsys fs.FS, logger *slog.Logger) error {
	for role, variants := range c.roles {
		for _, v := range variants {
			data, err := readPreview(fsys, role, v.Name)
			if err != nil {
				return err
			}
			if data == nil {
				data, err = RenderPreview(v.Components)
				if err != nil {
					return fmt.Errorf("rendering preview %s/%s: %w", role, v.Name, err)
				}
			} else {
				logger.Debug("using provided template preview", "role", role, "template", v.Name)
			}
			c.previews[previewKey(role, v.Name)] = Candidate{Name: v.Name, Preview: data, PreviewMIME: "image/png"}
		}
	}
	return nil
}

// readPreview returns a provided preview downscaled to preview size, or nil.
func readPreview(fsys fs.FS, role pagination.Role, name string) ([]byte, error) {
	for _, ext := range previewExtensions {
		p := path.Join("previews", string(role), name+ext)
		raw, err := fs.ReadFile(fsys, p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if !filetype.IsImage(raw) {
			return nil, fmt.Errorf("%w: %s is not an image", ErrInvalidCatalog, p)
		}
		img, err := imaging.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", p, err)
		}
		return encodePNG(imaging.Fit(img, previewWidth, previewHeight, imaging.Lanczos))
	}
	return nil, nil
}

// RenderPreview draws a schematic page for a component list: one block per
// component, stacked top to bottom, colored by what it carries.
func RenderPreview(components []Component) ([]byte, error) {
	page := imaging.New(previewWidth, previewHeight, colorPage)

	total := 0
	for _, comp := range components {
		total += blockWeight(comp)
	}
	if total == 0 {
		return encodePNG(page)
	}

	avail := previewHeight - 2*previewMargin - blockGap*(len(components)-1)
	inner := previewWidth - 2*previewMargin
	y := previewMargin
	for _, comp := range components {
		h := max(avail*blockWeight(comp)/total, 4)
		page = drawBlock(page, comp.Type, previewMargin, y, inner, h)
		y += h + blockGap
	}
	return encodePNG(page)
}

func drawBlock(page *image.NRGBA, t Type, x, y, w, h int) *image.NRGBA {
	switch {
	case t == TypeQR:
		side := min(h, w/4)
		return imaging.Paste(page, imaging.New(side, side, colorQR), image.Pt(x, y))
	case t.Paired():
		side := min(h, w/2)
		left, right := colorFor(t), colorImage
		if t == TypeImageText || t == TypeImageExample {
			left, right = colorImage, colorFor(t)
		}
		half := (w - blockGap) / 2
		page = imaging.Paste(page, imaging.New(half, side, left), image.Pt(x, y))
		return imaging.Paste(page, imaging.New(half, side, right), image.Pt(x+half+blockGap, y))
	}
	return imaging.Paste(page, imaging.New(w, h, colorFor(t)), image.Pt(x, y))
}

func colorFor(t Type) color.NRGBA {
	switch {
	case t == TypeHeader:
		return colorHeader
	case t.Label():
		return colorLabel
	case t.HasExample():
		return colorExample
	case t == TypeImage:
		return colorImage
	case t == TypeQR:
		return colorQR
	}
	return colorText
}

func blockWeight(comp Component) int {
	switch t := comp.Type; {
	case t == TypeHeader, t.Label():
		return 2
	case t == TypeQR:
		return 5
	case t == TypeImage:
		return 12
	case t.Paired():
		return 11
	case t.HasExample(), t.SheetOnly():
		return 8
	case t.HasText():
		return max(comp.TextLength/150, 3)
	}
	return 3
}

// PNG returns data as a PNG, the format component fragments embed. Other
// image formats are decoded and re-encoded.
func PNG(data []byte) ([]byte, error) {
	if filetype.Is(data, "png") {
		return data, nil
	}
	if !filetype.IsImage(data) {
		return nil, errors.New("not an image")
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
