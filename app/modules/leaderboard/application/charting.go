package leaderboardservice

import (
	"bytes"
	"context"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	// DefaultChartTop is how many users the chart shows when not asked otherwise.
	DefaultChartTop = 10
	// MaxChartTop bounds the chart size.
	MaxChartTop = 25
)

// ChartPalette holds the colors of a rendered chart.
type ChartPalette struct {
	Background drawing.Color
	Bar        drawing.Color
	Text       drawing.Color
}

// DefaultPalette is a dark theme that matches the scoreboard.
var DefaultPalette = ChartPalette{
	Background: drawing.ColorFromHex("101418"),
	Bar:        drawing.ColorFromHex("2ecc71"),
	Text:       drawing.ColorFromHex("e6e6e6"),
}

// TopChart renders the top users of the global board as a PNG bar chart.
func (s *LeaderboardService) TopChart(ctx context.Context, top int) ([]byte, error) {
	if top <= 0 {
		top = DefaultChartTop
	}
	if top > MaxChartTop {
		top = MaxChartTop
	}

	board, err := s.Global(ctx, pageOf(top))
	if err != nil {
		return nil, err
	}
	return GenerateTopChart(board.Leaderboard, DefaultPalette)
}

// GenerateTopChart produces a PNG bar chart of entries' scores, in order.
func GenerateTopChart(entries []GlobalEntry, palette ChartPalette) ([]byte, error) {
	maxScore := 0
	for _, e := range entries {
		if e.Score > maxScore {
			maxScore = e.Score
		}
	}
	if maxScore == 0 {
		return renderNoDataPlaceholder(palette)
	}

	bars := make([]chart.Value, 0, len(entries))
	for _, e := range entries {
		bars = append(bars, chart.Value{
			Label: e.Username,
			Value: float64(e.Score),
			Style: chart.Style{
				FillColor:   palette.Bar,
				StrokeColor: palette.Bar,
			},
		})
	}

	graph := chart.BarChart{
		Title:    "Top players",
		Width:    900,
		Height:   450,
		BarWidth: 50,
		TitleStyle: chart.Style{
			FontColor: palette.Text,
		},
		Background: chart.Style{
			FillColor: palette.Background,
			Padding:   chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.Style{
			FontColor: palette.Text,
		},
		YAxis: chart.YAxis{
			Style: chart.Style{
				FontColor: palette.Text,
			},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxScore)},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No solves yet"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(palette.Text)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
