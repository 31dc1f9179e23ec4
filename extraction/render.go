package extraction

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// renderPages rasterizes every page of the document. PDFs go through fitz;
// plain images are decoded directly.
func renderPages(path string, dpi float64) ([]*image.RGBA, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if imageExtensions[ext] {
		img, err := decodeImage(path)
		if err != nil {
			return nil, err
		}
		return []*image.RGBA{img}, nil
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer doc.Close()

	pages := make([]*image.RGBA, 0, doc.NumPage())
	for pageNum := 0; pageNum < doc.NumPage(); pageNum++ {
		img, err := doc.ImageDPI(pageNum, dpi)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", pageNum+1, err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}

func decodeImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return toRGBA(img), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

// newOCRClient returns a tesseract client tuned the same way for every stage.
func newOCRClient() *gosseract.Client {
	client := gosseract.NewClient()
	client.SetVariable("tessedit_ocr_engine_mode", "1")
	client.SetVariable("tessedit_pageseg_mode", "3")
	client.SetVariable("preserve_interword_spaces", "1")
	return client
}

// ocrImage runs full-page recognition on one rendered page.
func ocrImage(client *gosseract.Client, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image for OCR: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text via OCR: %w", err)
	}
	return text, nil
}

// ocrWords returns per-word bounding boxes with block/paragraph/line indexes.
func ocrWords(client *gosseract.Client, img image.Image) ([]gosseract.BoundingBox, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image for OCR: %w", err)
	}
	boxes, err := client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("failed to read word boxes: %w", err)
	}
	return boxes, nil
}
