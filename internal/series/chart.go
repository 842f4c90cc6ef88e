package series

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Chart builds a line chart of confidence over the series with each point
// labelled by its predicted class.
func Chart(res *Result) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Land Cover Timeline", Width: "900px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Land cover timeline",
			Subtitle: fmt.Sprintf("model=%s images=%d changes=%d", res.ModelUsed, res.TotalImages, res.ChangeCount),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Confidence (%)", Min: 0, Max: 100}),
	)

	data := make([]opts.LineData, len(res.Entries))
	for i, e := range res.Entries {
		data[i] = opts.LineData{Name: e.Class, Value: e.Confidence}
	}
	line.SetXAxis(res.Timeline.Dates).
		AddSeries("confidence", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}"}),
		)
	return line
}

// RenderChart writes the timeline chart as a standalone HTML page.
func RenderChart(w io.Writer, res *Result) error {
	return Chart(res).Render(w)
}
