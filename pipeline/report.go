package pipeline

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/creditgroup/pkg/errors"
	"github.com/YuminosukeSato/creditgroup/preprocessing"
)

// PlotGroupSizes saves a bar chart with the number of columns in every
// group. The image format follows the extension of path (png, svg, pdf).
func PlotGroupSizes(groups preprocessing.ColumnGroups, path string) error {
	counts := groups.Counts()
	values := make(plotter.Values, len(preprocessing.AllGroups))
	names := make([]string, len(preprocessing.AllGroups))
	for i, g := range preprocessing.AllGroups {
		values[i] = float64(counts[g])
		names[i] = string(g)
	}

	p := plot.New()
	p.Title.Text = "Columns per group"
	p.Y.Label.Text = "columns"

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return errors.Wrap(err, "bar chart")
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}
