// Package analytics computes derived views over an immutable restaurant dataset.
// Every function is a pure transform: same dataset in, same aggregate out.
package analytics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"restodash/dataset"
)

// Selector extracts an optional numeric field from a record.
// ok is false when the field failed normalization and must be skipped.
type Selector func(r dataset.Record) (value float64, ok bool)

// GroupKey derives the grouping label for a record.
type GroupKey func(r dataset.Record) string

// RateOf selects the normalized rating.
func RateOf(r dataset.Record) (float64, bool) {
	if r.Rate == nil {
		return 0, false
	}
	return *r.Rate, true
}

// VotesOf selects the vote count.
func VotesOf(r dataset.Record) (float64, bool) {
	if r.Votes == nil {
		return 0, false
	}
	return float64(*r.Votes), true
}

// CostOf selects the approximate cost for two.
func CostOf(r dataset.Record) (float64, bool) {
	if r.CostForTwo == nil {
		return 0, false
	}
	return *r.CostForTwo, true
}

// ByOnlineOrder groups records by the online-ordering flag.
func ByOnlineOrder(r dataset.Record) string {
	return dataset.YesNo(r.OnlineOrder)
}

// ByBookTable groups records by the table-booking flag.
func ByBookTable(r dataset.Record) string {
	return dataset.YesNo(r.BookTable)
}

// ByType groups records by restaurant type.
func ByType(r dataset.Record) string {
	return r.Type
}

// GroupMean computes the arithmetic mean of value per group. Rows whose value
// failed normalization are skipped; groups with no contributing rows are omitted.
func GroupMean(ds *dataset.Dataset, key GroupKey, value Selector) map[string]float64 {
	groups := make(map[string][]float64)
	for _, r := range ds.Records() {
		v, ok := value(r)
		if !ok {
			continue
		}
		k := key(r)
		groups[k] = append(groups[k], v)
	}

	means := make(map[string]float64, len(groups))
	for k, vs := range groups {
		means[k] = stat.Mean(vs, nil)
	}
	return means
}

// Correlation computes the Pearson correlation coefficient between two fields
// over rows where both are valid. Returns NaN with fewer than two valid pairs
// or when either side has zero variance.
func Correlation(ds *dataset.Dataset, a, b Selector) float64 {
	var xs, ys []float64
	for _, r := range ds.Records() {
		x, okX := a(r)
		y, okY := b(r)
		if !okX || !okY {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}

	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// CorrelationMatrix is the rate/votes/cost pairwise correlation grid.
type CorrelationMatrix struct {
	Fields []string    `json:"fields"`
	Values [][]float64 `json:"values"`
}

// Correlations computes the full rate/votes/cost correlation matrix over rows
// where all three fields are valid, mirroring a dataframe corr() heatmap.
func Correlations(ds *dataset.Dataset) CorrelationMatrix {
	complete := ds.Complete()
	selectors := []Selector{RateOf, VotesOf, CostOf}

	m := CorrelationMatrix{
		Fields: []string{"rate", "votes", "cost_for_two"},
		Values: make([][]float64, len(selectors)),
	}
	for i := range selectors {
		m.Values[i] = make([]float64, len(selectors))
		for j := range selectors {
			if i == j {
				m.Values[i][j] = 1
				continue
			}
			m.Values[i][j] = Correlation(complete, selectors[i], selectors[j])
		}
	}
	return m
}

// Bucket is one half-open interval [Lo, Hi) with its member count.
type Bucket struct {
	Label string  `json:"label"`
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// BucketCounts assigns each valid value to the half-open interval containing
// it. Edges must be ascending; values outside all buckets are excluded, so the
// buckets partition [edges[0], edges[len-1]) exhaustively without overlap.
func BucketCounts(ds *dataset.Dataset, value Selector, edges []float64) []Bucket {
	if len(edges) < 2 {
		return nil
	}

	buckets := make([]Bucket, len(edges)-1)
	for i := range buckets {
		buckets[i] = Bucket{
			Label: fmt.Sprintf("%g-%g", edges[i], edges[i+1]),
			Lo:    edges[i],
			Hi:    edges[i+1],
		}
	}

	for _, r := range ds.Records() {
		v, ok := value(r)
		if !ok {
			continue
		}
		if v < edges[0] || v >= edges[len(edges)-1] {
			continue
		}
		// SearchFloat64s returns the smallest i with edges[i] >= v, so a
		// value sitting on an edge opens its own bucket while interior
		// values belong to the bucket one below.
		idx := sort.SearchFloat64s(edges, v)
		if idx < len(edges) && edges[idx] == v {
			buckets[idx].Count++
		} else {
			buckets[idx-1].Count++
		}
	}
	return buckets
}

// RatingEdges builds evenly spaced histogram edges over the rating scale.
func RatingEdges(bins int) []float64 {
	if bins <= 0 {
		bins = 20
	}
	edges := make([]float64, bins+1)
	step := 5.0 / float64(bins)
	for i := range edges {
		edges[i] = float64(i) * step
	}
	return edges
}
