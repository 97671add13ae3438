package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	apperrors "github.com/x-itg/ocr/internal/errors"
)

const (
	DefaultWidth  = 1200
	DefaultHeight = 600
)

// PNGOptions controls the rendered image.
type PNGOptions struct {
	Width  int
	Height int
	Title  string
	// HideReference suppresses the mean/max/min lines.
	HideReference bool
}

func (o PNGOptions) withDefaults() PNGOptions {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Title == "" {
		o.Title = "OCR readings"
	}
	return o
}

var (
	meanColor = chart.ColorGreen
	maxColor  = chart.ColorRed
	minColor  = chart.ColorOrange
)

func dashed(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor:     col.WithAlpha(180),
		StrokeWidth:     1,
		StrokeDashArray: []float64{5, 3},
	}
}

// YRange pads [lo, hi] by 10% of the span (1 when flat) and floors it at 0.
func YRange(lo, hi float64) (float64, float64) {
	margin := (hi - lo) * 0.1
	if margin == 0 {
		margin = 1
	}
	return math.Max(0, lo-margin), hi + margin
}

// WritePNG renders the visible series with x in seconds since the earliest sample.
func WritePNG(w io.Writer, snap Snapshot, opts PNGOptions) error {
	opts = opts.withDefaults()

	var visible []Series
	for _, s := range snap.withData() {
		if s.Visible {
			visible = append(visible, s)
		}
	}
	if len(visible) == 0 {
		return apperrors.New(apperrors.CodeExportFailed, "no data to export")
	}

	origin := visible[0].Times[0]
	for _, s := range visible[1:] {
		if s.Times[0].Before(origin) {
			origin = s.Times[0]
		}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	var xMax float64
	var plotted []chart.Series
	for _, s := range visible {
		xs := make([]float64, s.Len())
		for i, t := range s.Times {
			xs[i] = t.Sub(origin).Seconds()
		}
		ys := s.Values
		// go-chart cannot range a single point; widen it into a short flat segment.
		if len(xs) == 1 {
			xs = []float64{xs[0], xs[0] + 1}
			ys = []float64{ys[0], ys[0]}
		}
		xMax = math.Max(xMax, xs[len(xs)-1])

		col := drawing.ColorFromHex(string(s.Color))
		if s.Color == "" {
			col = chart.ColorBlue
		}
		plotted = append(plotted, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: col, StrokeWidth: 1.5},
		})

		st := stats(s.Values)
		lo, hi = math.Min(lo, st.min), math.Max(hi, st.max)
		if opts.HideReference || s.Len() < 2 {
			continue
		}
		refs := []struct {
			label string
			value float64
			col   drawing.Color
		}{
			{"avg", st.mean, meanColor},
			{"max", st.max, maxColor},
			{"min", st.min, minColor},
		}
		for _, ref := range refs {
			c := ref.col
			if len(visible) > 1 {
				c = col
			}
			plotted = append(plotted, chart.ContinuousSeries{
				Name:    fmt.Sprintf("%s %s: %.2f", s.Name, ref.label, ref.value),
				XValues: []float64{xs[0], xs[len(xs)-1]},
				YValues: []float64{ref.value, ref.value},
				Style:   dashed(c),
			})
		}
	}

	yMin, yMax := YRange(lo, hi)
	ch := chart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 28}},
		XAxis: chart.XAxis{
			Name:  fmt.Sprintf("seconds since %s", origin.Format(TimeLayout)),
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(xMax, 1)},
		},
		YAxis: chart.YAxis{
			Name:  "value",
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Series: plotted,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return apperrors.Wrap(err, apperrors.CodeExportFailed, "render chart")
	}
	return nil
}

// SavePNG renders snap into path.
func SavePNG(path string, snap Snapshot, opts PNGOptions) (err error) {
	if snap.Empty() {
		return apperrors.New(apperrors.CodeExportFailed, "no data to export")
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.CodeExportFailed, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = apperrors.Wrapf(cerr, apperrors.CodeExportFailed, "close %s", path)
		}
	}()
	return WritePNG(f, snap, opts)
}

type summary struct {
	min, max, mean float64
}

func stats(values []float64) summary {
	s := summary{min: values[0], max: values[0]}
	var sum float64
	for _, v := range values {
		sum += v
		s.min = math.Min(s.min, v)
		s.max = math.Max(s.max, v)
	}
	s.mean = sum / float64(len(values))
	return s
}

// DefaultFileName builds a timestamped export name such as "ocr_data_20240501_120000.csv".
func DefaultFileName(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format("20060102_150405"), ext)
}
