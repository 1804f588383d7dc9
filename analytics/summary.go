package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"restodash/dataset"
)

// Summary is the KPI row of the dashboard.
type Summary struct {
	TotalRestaurants int     `json:"total_restaurants"`
	AvgRating        float64 `json:"avg_rating"`
	AvgCostForTwo    float64 `json:"avg_cost_for_two"`
	TotalVotes       int     `json:"total_votes"`
}

// Summarize computes the headline KPIs. Means skip rows whose field failed
// normalization; with no valid rows the mean reports as zero.
func Summarize(ds *dataset.Dataset) Summary {
	var rates, costs []float64
	totalVotes := 0
	for _, r := range ds.Records() {
		if r.Rate != nil {
			rates = append(rates, *r.Rate)
		}
		if r.CostForTwo != nil {
			costs = append(costs, *r.CostForTwo)
		}
		if r.Votes != nil {
			totalVotes += *r.Votes
		}
	}

	s := Summary{
		TotalRestaurants: ds.Len(),
		TotalVotes:       totalVotes,
	}
	if len(rates) > 0 {
		s.AvgRating = stat.Mean(rates, nil)
	}
	if len(costs) > 0 {
		s.AvgCostForTwo = stat.Mean(costs, nil)
	}
	return s
}

// TypeCount is one slice of the restaurant-type distribution.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// TypeCounts returns the restaurant-type distribution, most common first.
// Ties break alphabetically so the order is stable across refreshes.
func TypeCounts(ds *dataset.Dataset) []TypeCount {
	counts := make(map[string]int)
	for _, r := range ds.Records() {
		if r.Type == "" {
			continue
		}
		counts[r.Type]++
	}

	out := make([]TypeCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, TypeCount{Type: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// RankedRestaurant is one row of the most/least voted tables.
type RankedRestaurant struct {
	Name       string  `json:"name"`
	Rate       float64 `json:"rate"`
	Votes      int     `json:"votes"`
	CostForTwo float64 `json:"cost_for_two"`
}

// TopByVotes returns the n most voted restaurants, or the n least voted when
// ascending is true. Only fully valid rows participate, matching the dropna
// the original analysis applied before ranking.
func TopByVotes(ds *dataset.Dataset, n int, ascending bool) []RankedRestaurant {
	complete := ds.Complete().Records()

	ranked := make([]RankedRestaurant, 0, len(complete))
	for _, r := range complete {
		ranked = append(ranked, RankedRestaurant{
			Name:       r.Name,
			Rate:       *r.Rate,
			Votes:      *r.Votes,
			CostForTwo: *r.CostForTwo,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Votes != ranked[j].Votes {
			if ascending {
				return ranked[i].Votes < ranked[j].Votes
			}
			return ranked[i].Votes > ranked[j].Votes
		}
		return ranked[i].Name < ranked[j].Name
	})

	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// ServiceMixSummary breaks the dataset down by service availability.
type ServiceMixSummary struct {
	Both       int     `json:"both"`
	OnlineOnly int     `json:"online_only"`
	BookOnly   int     `json:"book_only"`
	Neither    int     `json:"neither"`
	Total      int     `json:"total"`
	BothPct    float64 `json:"both_pct"`
}

// ServiceMix counts restaurants by online-order / table-booking availability.
func ServiceMix(ds *dataset.Dataset) ServiceMixSummary {
	var mix ServiceMixSummary
	for _, r := range ds.Records() {
		switch {
		case r.OnlineOrder && r.BookTable:
			mix.Both++
		case r.OnlineOrder:
			mix.OnlineOnly++
		case r.BookTable:
			mix.BookOnly++
		default:
			mix.Neither++
		}
	}
	mix.Total = ds.Len()
	if mix.Total > 0 {
		mix.BothPct = float64(mix.Both) / float64(mix.Total) * 100
	}
	return mix
}

// FilterOptions narrows the dataset the way the dashboard sidebar does.
// Nil range bounds are open; a row with an unparsable field fails any range
// filter on that field.
type FilterOptions struct {
	Type    string
	MinRate *float64
	MaxRate *float64
	MinCost *float64
	MaxCost *float64
}

// IsZero reports whether no filter is set.
func (f FilterOptions) IsZero() bool {
	return f.Type == "" && f.MinRate == nil && f.MaxRate == nil &&
		f.MinCost == nil && f.MaxCost == nil
}

// Key returns a stable cache key for this filter combination.
func (f FilterOptions) Key() string {
	fmtBound := func(v *float64) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf("%g", *v)
	}
	return fmt.Sprintf("type=%s|rate=%s..%s|cost=%s..%s",
		f.Type, fmtBound(f.MinRate), fmtBound(f.MaxRate),
		fmtBound(f.MinCost), fmtBound(f.MaxCost))
}

// Filter returns the derived dataset of rows matching the options.
func Filter(ds *dataset.Dataset, f FilterOptions) *dataset.Dataset {
	if f.IsZero() {
		return ds
	}

	inRange := func(v *float64, lo, hi *float64) bool {
		if lo == nil && hi == nil {
			return true
		}
		if v == nil {
			return false
		}
		if lo != nil && *v < *lo {
			return false
		}
		if hi != nil && *v > *hi {
			return false
		}
		return true
	}

	var out []dataset.Record
	for _, r := range ds.Records() {
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		if !inRange(r.Rate, f.MinRate, f.MaxRate) {
			continue
		}
		if !inRange(r.CostForTwo, f.MinCost, f.MaxCost) {
			continue
		}
		out = append(out, r)
	}
	return dataset.FromRecords(out)
}

// Snapshot bundles every dashboard aggregate for one filter combination.
type Snapshot struct {
	Summary             Summary            `json:"summary"`
	TypeCounts          []TypeCount        `json:"type_counts"`
	RatingHistogram     []Bucket           `json:"rating_histogram"`
	RatingByOnlineOrder map[string]float64 `json:"rating_by_online_order"`
	RatingByBookTable   map[string]float64 `json:"rating_by_book_table"`
	CostByType          map[string]float64 `json:"cost_by_type"`
	VotesRateCorr       *float64           `json:"votes_rate_corr"`
	ServiceMix          ServiceMixSummary  `json:"service_mix"`
	GeneratedAt         time.Time          `json:"generated_at"`
}

// BuildSnapshot recomputes the full aggregate bundle from the dataset.
func BuildSnapshot(ds *dataset.Dataset) *Snapshot {
	return &Snapshot{
		Summary:             Summarize(ds),
		TypeCounts:          TypeCounts(ds),
		RatingHistogram:     BucketCounts(ds, RateOf, RatingEdges(20)),
		RatingByOnlineOrder: GroupMean(ds, ByOnlineOrder, RateOf),
		RatingByBookTable:   GroupMean(ds, ByBookTable, RateOf),
		CostByType:          GroupMean(ds, ByType, CostOf),
		VotesRateCorr:       FiniteOrNil(Correlation(ds, VotesOf, RateOf)),
		ServiceMix:          ServiceMix(ds),
		GeneratedAt:         time.Now(),
	}
}

// FiniteOrNil maps NaN/Inf to nil so aggregates stay JSON-encodable.
func FiniteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
