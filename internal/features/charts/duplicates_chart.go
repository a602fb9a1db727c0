package charts

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"wallet-tracker/internal/features/duplicates"
	"wallet-tracker/internal/features/tables"
	logging "wallet-tracker/internal/infra/log"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
)

const (
	chartWidth = 1600

	marginTop    = 140.0
	marginBottom = 60.0
	labelAreaX   = 40.0
	barAreaLeft  = 760.0
	barAreaRight = 1480.0

	barHeight  = 36.0
	barSpacing = 14.0

	titleFontSize = 40.0
	labelFontSize = 22.0

	DefaultTopN = 20
)

var (
	backgroundColor = color.RGBA{18, 18, 18, 255}
	barColor        = color.RGBA{0, 200, 120, 255}
	gridColor       = color.RGBA{70, 70, 70, 255}
)

var fontPaths = []string{
	"etc/fonts/Inter-Regular.ttf",
	"etc/fonts/InterVariable.ttf",
	"/usr/share/fonts/truetype/inter/Inter-Regular.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/Library/Fonts/Inter-Regular.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
}

// RenderDuplicatesChart draws the first topN entries of report as horizontal bars
// and saves a PNG at path.
func RenderDuplicatesChart(report duplicates.Report, path string, topN int) error {
	if len(report) == 0 {
		return tables.ErrEmptyReport
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	entries := report
	if len(entries) > topN {
		entries = entries[:topN]
	}

	height := int(marginTop + marginBottom + float64(len(entries))*(barHeight+barSpacing))
	dc := gg.NewContext(chartWidth, height)
	dc.SetColor(backgroundColor)
	dc.Clear()

	fontPath := findFont()
	setFont := func(size float64) {
		if fontPath == "" {
			return
		}
		if err := dc.LoadFontFace(fontPath, size); err != nil {
			logging.LogDebug("Failed to load font, using the built-in face",
				zap.String("font", fontPath), zap.Error(err))
		}
	}

	setFont(titleFontSize)
	dc.SetColor(color.White)
	dc.DrawString(fmt.Sprintf("Duplicated wallets (top %d of %d)", len(entries), len(report)), labelAreaX, marginTop/2)

	maxCount := entries[0].Count
	barSpan := barAreaRight - barAreaLeft

	dc.SetColor(gridColor)
	dc.SetLineWidth(1)
	dc.DrawLine(barAreaLeft, marginTop-barSpacing, barAreaLeft, float64(height)-marginBottom)
	dc.Stroke()

	setFont(labelFontSize)
	for i, e := range entries {
		y := marginTop + float64(i)*(barHeight+barSpacing)
		w := float64(e.Count) / float64(maxCount) * barSpan

		dc.SetColor(barColor)
		dc.DrawRectangle(barAreaLeft, y, w, barHeight)
		dc.Fill()

		dc.SetColor(color.White)
		dc.DrawStringAnchored(shorten(e.Identifier), labelAreaX, y+barHeight/2, 0, 0.5)
		dc.DrawStringAnchored(strconv.Itoa(e.Count), barAreaLeft+w+10, y+barHeight/2, 0, 0.5)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &tables.WriteError{Path: path, Err: err}
		}
	}
	if err := dc.SavePNG(path); err != nil {
		return &tables.WriteError{Path: path, Err: err}
	}

	logging.LogInfo("Duplicates chart generated",
		zap.String("filename", path),
		zap.Int("bars", len(entries)))
	return nil
}

func findFont() string {
	for _, p := range fontPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	logging.LogDebug("No TTF font found, using the built-in face")
	return ""
}

// shorten keeps wallet addresses readable in the label column.
func shorten(id string) string {
	const keep = 20
	r := []rune(id)
	if len(r) <= 2*keep+3 {
		return id
	}
	return string(r[:keep]) + "..." + string(r[len(r)-keep:])
}
