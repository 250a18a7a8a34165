package lightgbm

import (
	"math"
	"sort"
)

// binMapper maps raw feature values to histogram bins. Bin b holds values
// v with upperBounds[b-1] < v <= upperBounds[b]; the last bound is +Inf.
// NaN goes to the extra bin missingBin.
type binMapper struct {
	upperBounds []float64
}

func (m *binMapper) numBins() int { return len(m.upperBounds) }

func (m *binMapper) missingBin() int { return len(m.upperBounds) }

func (m *binMapper) valueToBin(v float64) int {
	if math.IsNaN(v) {
		return m.missingBin()
	}
	return sort.SearchFloat64s(m.upperBounds, v)
}

// threshold returns the raw split threshold of "bin <= b goes left".
func (m *binMapper) threshold(b int) float64 {
	return m.upperBounds[b]
}

// newBinMapper builds bounds from the observed values. With no more distinct
// values than maxBin every value gets its own bin, split at midpoints.
// Otherwise bins hold roughly equal numbers of samples.
func newBinMapper(values []float64, maxBin int) *binMapper {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return &binMapper{upperBounds: []float64{math.Inf(1)}}
	}
	sort.Float64s(sorted)

	distinct := []float64{sorted[0]}
	counts := []int{1}
	for _, v := range sorted[1:] {
		if v == distinct[len(distinct)-1] {
			counts[len(counts)-1]++
			continue
		}
		distinct = append(distinct, v)
		counts = append(counts, 1)
	}

	var bounds []float64
	if len(distinct) <= maxBin {
		for i := 0; i < len(distinct)-1; i++ {
			bounds = append(bounds, (distinct[i]+distinct[i+1])/2)
		}
	} else {
		perBin := float64(len(sorted)) / float64(maxBin)
		acc := 0
		for i := 0; i < len(distinct)-1 && len(bounds) < maxBin-1; i++ {
			acc += counts[i]
			if float64(acc) >= perBin*float64(len(bounds)+1) {
				bounds = append(bounds, (distinct[i]+distinct[i+1])/2)
			}
		}
	}
	bounds = append(bounds, math.Inf(1))
	return &binMapper{upperBounds: bounds}
}

// binnedData stores every feature as bin indices, column-major.
type binnedData struct {
	mappers []*binMapper
	bins    [][]uint16
	nRows   int
}

func newBinnedData(rows [][]float64, nFeatures, maxBin int) *binnedData {
	d := &binnedData{
		mappers: make([]*binMapper, nFeatures),
		bins:    make([][]uint16, nFeatures),
		nRows:   len(rows),
	}
	col := make([]float64, len(rows))
	for f := 0; f < nFeatures; f++ {
		for i, row := range rows {
			col[i] = row[f]
		}
		m := newBinMapper(col, maxBin)
		d.mappers[f] = m
		binned := make([]uint16, len(rows))
		for i, v := range col {
			binned[i] = uint16(m.valueToBin(v))
		}
		d.bins[f] = binned
	}
	return d
}

// histBin accumulates gradient statistics of one bin.
type histBin struct {
	grad  float64
	hess  float64
	count int
}

// histogram holds one slice of bins per feature; the last bin of every
// feature is the missing-value bin.
type histogram [][]histBin

func (d *binnedData) newHistogram() histogram {
	h := make(histogram, len(d.mappers))
	for f, m := range d.mappers {
		h[f] = make([]histBin, m.numBins()+1)
	}
	return h
}

// subtract sets h = parent - sibling.
func (h histogram) subtract(parent, sibling histogram) {
	for f := range h {
		for b := range h[f] {
			h[f][b] = histBin{
				grad:  parent[f][b].grad - sibling[f][b].grad,
				hess:  parent[f][b].hess - sibling[f][b].hess,
				count: parent[f][b].count - sibling[f][b].count,
			}
		}
	}
}
