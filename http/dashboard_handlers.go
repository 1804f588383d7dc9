package http

import (
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"restodash/analytics"
	"restodash/logging"
)

// snapshotCache 按筛选组合缓存聚合快照，数据集重载时整体清空
var snapshotCache *lru.Cache[string, *analytics.Snapshot]

// InitSnapshotCache 初始化快照缓存
func InitSnapshotCache(size int) error {
	if size <= 0 {
		size = 64
	}
	cache, err := lru.New[string, *analytics.Snapshot](size)
	if err != nil {
		return err
	}
	snapshotCache = cache
	return nil
}

// ResetSnapshotCache 清空快照缓存
func ResetSnapshotCache() {
	if snapshotCache != nil {
		snapshotCache.Purge()
	}
}

// RegisterDashboardRoutes 注册仪表盘路由
func RegisterDashboardRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", handleIndex)
	mux.HandleFunc("GET /api/dashboard/snapshot", handleDashboardSnapshot)
	mux.HandleFunc("GET /api/dashboard/summary", handleDashboardSummary)
	mux.HandleFunc("GET /api/dashboard/types", handleDashboardTypes)
	mux.HandleFunc("GET /api/dashboard/ratings/histogram", handleRatingHistogram)
	mux.HandleFunc("GET /api/dashboard/online-order", handleOnlineOrderRating)
	mux.HandleFunc("GET /api/dashboard/book-table", handleBookTableRating)
	mux.HandleFunc("GET /api/dashboard/cost-by-type", handleCostByType)
	mux.HandleFunc("GET /api/dashboard/correlation", handleCorrelation)
	mux.HandleFunc("GET /api/dashboard/top-voted", handleTopVoted)
	mux.HandleFunc("GET /api/dashboard/service-mix", handleServiceMix)
	mux.HandleFunc("GET /api/ws/dashboard", handleDashboardWS)
}

func handleDashboardSnapshot(w http.ResponseWriter, r *http.Request) {
	ds := currentDataset(w)
	if ds == nil {
		return
	}

	opts := parseFilterOptions(r)
	key := opts.Key()

	if snapshotCache != nil {
		if snap, ok := snapshotCache.Get(key); ok {
			writeJSON(w, snap)
			return
		}
	}

	snap := analytics.BuildSnapshot(analytics.Filter(ds, opts))
	if snapshotCache != nil {
		snapshotCache.Add(key, snap)
	}

	writeJSON(w, snap)
}

func handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	ds := currentDataset(w)
	if ds == nil {
		return
	}

	filtered := analytics.Filter(ds, parseFilterOptions(r))
	writeJSON(w, analytics.Summarize(filtered))
}

func handleDashboardTypes(w http.ResponseWriter, r *http.Request) {
	ds := currentDataset(w)
	if ds == nil {
		return
	}

	filtered := analytics.Filter(ds, parseFilterOptions(r))
	writeJSON(w, map[string]interface{}{
		"types": analytics.TypeCounts(filtered),
	})
}

func handleRatingHistogram(w http.ResponseWriter, r *http.Request) {
	ds := currentDataset(w)
	if ds == nil {
		return
	}

	bins := queryInt(r, "bins", 20)
	filtered := analytics.Filter(ds, parseFilterOptions(r))
	buckets := analytics.BucketCounts(filtered, analytics.RateOf, analytics.RatingEdges(bins))

	writeJSON(w, map[string]interface{}{
		"buckets": buckets,
		"bins":    bins,
	})
}

func handleOnlineOrderRating(w http.ResponseWriter, r *http.Request) {
	ds := currentDataset(w)
	if ds == nil {
		return
	}

	filtered := analytics.Filter(ds, parseFilterOptions(r))
	writeJSON(w, map[string]interface{}{
		"mean_rating": analytics.GroupMean(filtered, analytics.ByOnlineOrder, analytics.RateOf),
	})
}

func handleBookTableRating(w http.ResponseWriter, r *http.Request) {
	ds := currentDataset(w)
	if ds == nil {
		return
	}

	filtered := analytics.Filter(ds, parseFilterOptions(r))
	writeJSON(w, map[string]interface{}{
		"mean_rating": analytics.GroupMean(filtered, analytics.ByBookTable, analytics.RateOf),
	})
}

func handleCostByType(w http.ResponseWriter, r *http.Request) {
	ds := currentDataset(w)
	if ds == nil {
		return
	}

	filtered := analytics.Filter(ds, parseFilterOptions(r))
	writeJSON(w, map[string]interface{}{
		"mean_cost": analytics.GroupMean(filtered, analytics.ByType, analytics.CostOf),
	})
}

func handleCorrelation(w http.ResponseWriter, r *http.Request) {
	ds := currentDataset(w)
	if ds == nil {
		return
	}

	filtered := analytics.Filter(ds, parseFilterOptions(r))
	votesRate := analytics.FiniteOrNil(analytics.Correlation(filtered, analytics.VotesOf, analytics.RateOf))
	matrix := analytics.Correlations(filtered)

	// NaN不能进JSON，整体替换为null
	values := make([][]*float64, len(matrix.Values))
	for i, row := range matrix.Values {
		values[i] = make([]*float64, len(row))
		for j, v := range row {
			values[i][j] = analytics.FiniteOrNil(v)
		}
	}

	writeJSON(w, map[string]interface{}{
		"votes_rate": votesRate,
		"fields":     matrix.Fields,
		"matrix":     values,
		"timestamp":  time.Now(),
	})
}

func handleTopVoted(w http.ResponseWriter, r *http.Request) {
	ds := currentDataset(w)
	if ds == nil {
		return
	}

	limit := queryInt(r, "limit", 10)
	ascending := r.URL.Query().Get("order") == "asc"
	opts := parseFilterOptions(r)

	// 无筛选的榜单直接走sqlite索引；出错或带筛选时回退到内存排序
	var ranked []analytics.RankedRestaurant
	if storage != nil && opts.IsZero() {
		records, err := storage.TopVoted(r.Context(), limit, ascending)
		if err != nil {
			logging.S().Warnf("Storage top-voted query failed, falling back: %v", err)
		} else {
			ranked = make([]analytics.RankedRestaurant, 0, len(records))
			for _, rec := range records {
				ranked = append(ranked, analytics.RankedRestaurant{
					Name:       rec.Name,
					Rate:       *rec.Rate,
					Votes:      *rec.Votes,
					CostForTwo: *rec.CostForTwo,
				})
			}
		}
	}
	if ranked == nil {
		ranked = analytics.TopByVotes(analytics.Filter(ds, opts), limit, ascending)
	}

	writeJSON(w, map[string]interface{}{
		"restaurants": ranked,
		"count":       len(ranked),
		"order":       map[bool]string{true: "asc", false: "desc"}[ascending],
	})
}

func handleServiceMix(w http.ResponseWriter, r *http.Request) {
	ds := currentDataset(w)
	if ds == nil {
		return
	}

	filtered := analytics.Filter(ds, parseFilterOptions(r))
	writeJSON(w, analytics.ServiceMix(filtered))
}

func handleDashboardWS(w http.ResponseWriter, r *http.Request) {
	if wsHub == nil {
		http.Error(w, "websocket hub not initialized", http.StatusServiceUnavailable)
		return
	}
	wsHub.HandleWebSocket(w, r)
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}
