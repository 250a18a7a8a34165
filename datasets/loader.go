package datasets

import (
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/creditgroup/core/table"
	"github.com/YuminosukeSato/creditgroup/pkg/errors"
	"github.com/YuminosukeSato/creditgroup/pkg/log"
)

// NAValues are the CSV tokens read as null.
var NAValues = []string{"", "NA", "NaN", "nan"}

// ReadCSV reads a headed CSV into a table. Integer and float columns become
// KindNumeric and bool columns KindBool; everything else is kept as
// untyped KindObject text for the schema detector.
func ReadCSV(r io.Reader) (*table.Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(NAValues),
	)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "read csv")
	}

	names := df.Names()
	cols := make([]*table.Column, 0, len(names))
	for _, name := range names {
		col, err := fromSeries(name, df.Col(name))
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return table.New(cols...)
}

func fromSeries(name string, s series.Series) (*table.Column, error) {
	n := s.Len()
	values := make([]any, n)
	kind := table.KindObject

	switch s.Type() {
	case series.Int, series.Float:
		kind = table.KindNumeric
		for i := 0; i < n; i++ {
			if e := s.Elem(i); !e.IsNA() {
				values[i] = e.Float()
			}
		}
	case series.Bool:
		kind = table.KindBool
		for i := 0; i < n; i++ {
			e := s.Elem(i)
			if e.IsNA() {
				continue
			}
			b, err := e.Bool()
			if err != nil {
				return nil, errors.NewColumnError("ReadCSV", name, err.Error())
			}
			values[i] = b
		}
	default:
		for i := 0; i < n; i++ {
			if e := s.Elem(i); !e.IsNA() {
				values[i] = e.String()
			}
		}
	}
	return table.NewColumn(name, kind, values)
}

// LoadCreditData locates filename (cfg.TrainFile when empty) and reads it.
func LoadCreditData(cfg *Config, filename string) (*table.Table, error) {
	if filename == "" {
		filename = cfg.TrainFile
	}
	path, err := Locate(cfg, filename)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	tbl, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	log.GetLoggerWithName("datasets").Info("dataset loaded",
		log.PathKey, path,
		log.SamplesKey, tbl.NumRows(),
		log.FeaturesKey, tbl.NumCols(),
	)
	return tbl, nil
}
