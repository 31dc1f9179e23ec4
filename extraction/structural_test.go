package extraction

import (
	"image"
	"image/color"
	"image/draw"
	"reflect"
	"testing"

	"github.com/otiai10/gosseract/v2"
)

func gridImage(w, h int, xs, ys []int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	black := color.RGBA{A: 255}
	for _, y := range ys {
		for x := 0; x < w; x++ {
			img.Set(x, y, black)
		}
	}
	for _, x := range xs {
		for y := 0; y < h; y++ {
			img.Set(x, y, black)
		}
	}
	return img
}

func TestDetectGridLines(t *testing.T) {
	img := gridImage(100, 100, []int{10, 50, 90}, []int{20, 60})

	xs, ys := detectGridLines(img)
	if !reflect.DeepEqual(xs, []int{10, 50, 90}) {
		t.Errorf("xs = %v, want [10 50 90]", xs)
	}
	if !reflect.DeepEqual(ys, []int{20, 60}) {
		t.Errorf("ys = %v, want [20 60]", ys)
	}
}

func TestDetectGridLinesBlankPage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	xs, ys := detectGridLines(img)
	if len(xs) != 0 || len(ys) != 0 {
		t.Errorf("blank page produced rulings: xs=%v ys=%v", xs, ys)
	}
}

func TestAcceptStructural(t *testing.T) {
	heur := DefaultHeuristics()

	testCases := []struct {
		name   string
		tables []RawTable
		want   bool
	}{
		{
			"RowWithTwoPopulatedCells",
			[]RawTable{{Rows: [][]string{{"a", "b"}}}},
			true,
		},
		{
			"OnlySingleCellRows",
			[]RawTable{{Rows: [][]string{{"a", ""}, {"", "b"}}}},
			false,
		},
		{
			"NoTables",
			nil,
			false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := acceptStructural(tc.tables, heur); got != tc.want {
				t.Errorf("acceptStructural = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGroupByLine(t *testing.T) {
	box := func(block, line, x int, word string) gosseract.BoundingBox {
		return gosseract.BoundingBox{
			Box:        image.Rect(x, line*10, x+10, line*10+10),
			Word:       word,
			Confidence: 90,
			BlockNum:   block,
			LineNum:    line,
		}
	}

	boxes := []gosseract.BoundingBox{
		box(1, 2, 40, "42"),
		box(1, 1, 0, "total"),
		box(1, 2, 0, "tax"),
		box(1, 1, 40, "199.00"),
		box(1, 3, 0, "lonely"),
	}

	rows, confidence := groupByLine(boxes, 2)
	want := [][]string{{"total", "199.00"}, {"tax", "42"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
	if confidence <= 0 || confidence > 1 {
		t.Errorf("confidence = %v, want (0,1]", confidence)
	}
}

func TestGroupByLineNoQualifyingLines(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Word: "single", BlockNum: 1, LineNum: 1},
	}
	rows, _ := groupByLine(boxes, 2)
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %v", rows)
	}
}
