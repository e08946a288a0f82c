package presenter

import (
	"MarketDesk/internal/domain/models"
)

// ChartLine is one plotted column of the price chart.
type ChartLine struct {
	Key    string    `json:"key"`
	Color  string    `json:"color"`
	Width  int       `json:"width"`
	Values []float64 `json:"values"`
}

// SeriesView is the chart and table rendering of the held series.
type SeriesView struct {
	Symbol models.Symbol `json:"symbol"`
	Title  string        `json:"title"`

	XKey   string      `json:"x_key"`
	Labels []string    `json:"labels"`
	Lines  []ChartLine `json:"lines"`

	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"total_rows"`
	Footer    string     `json:"footer,omitempty"`
}

var chartLines = []ChartLine{
	{Key: models.FieldOpen, Color: "#3b82f6", Width: 1},
	{Key: models.FieldHigh, Color: "#10b981", Width: 1},
	{Key: models.FieldLow, Color: "#ef4444", Width: 1},
	{Key: models.FieldClose, Color: "#f59e0b", Width: 2},
}

// Series renders res: every point on the chart, the first maxRows points in
// the table (DefaultTableRows when maxRows <= 0). Table columns follow the
// first point. Points keep service order.
func (p *Presenter) Series(res *models.TimeSeriesResult, maxRows int) *SeriesView {
	if res == nil {
		return nil
	}
	if maxRows <= 0 {
		maxRows = DefaultTableRows
	}

	n := len(res.Points)
	v := &SeriesView{
		Symbol:    res.Symbol,
		Title:     res.Symbol.DisplayName() + " Price Chart",
		XKey:      models.FieldDate,
		Labels:    make([]string, 0, n),
		Lines:     make([]ChartLine, len(chartLines)),
		Columns:   []string{},
		Rows:      [][]string{},
		TotalRows: n,
	}
	copy(v.Lines, chartLines)
	for i := range v.Lines {
		v.Lines[i].Values = make([]float64, 0, n)
	}

	for _, pt := range res.Points {
		v.Labels = append(v.Labels, pt.Date)
		v.Lines[0].Values = append(v.Lines[0].Values, pt.Open.InexactFloat64())
		v.Lines[1].Values = append(v.Lines[1].Values, pt.High.InexactFloat64())
		v.Lines[2].Values = append(v.Lines[2].Values, pt.Low.InexactFloat64())
		v.Lines[3].Values = append(v.Lines[3].Values, pt.Close.InexactFloat64())
	}

	if n == 0 {
		return v
	}
	v.Columns = res.Points[0].Columns()
	shown := min(n, maxRows)
	for _, pt := range res.Points[:shown] {
		row := make([]string, len(v.Columns))
		for j, col := range v.Columns {
			row[j] = pt.Text(col)
		}
		v.Rows = append(v.Rows, row)
	}
	if n > shown {
		v.Footer = p.printer.Sprintf("Showing %d of %d rows", shown, n)
	}
	return v
}
