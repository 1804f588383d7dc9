package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"restodash/analytics"
	"restodash/dataset"
	"restodash/monitoring"
	"restodash/store"
)

var (
	datasetHolder *dataset.Holder
	storage       *store.Storage
	wsHub         *monitoring.Hub
	cleaningStats func() dataset.CleaningStats
)

// SetDatasetHolder 注入数据集持有者
func SetDatasetHolder(h *dataset.Holder) {
	datasetHolder = h
}

// SetStorage 注入存储
func SetStorage(s *store.Storage) {
	storage = s
}

// SetHub 注入WebSocket中心
func SetHub(h *monitoring.Hub) {
	wsHub = h
}

// SetCleaningStats 注入清洗统计来源
func SetCleaningStats(fn func() dataset.CleaningStats) {
	cleaningStats = fn
}

// RegisterHandlers 注册基础处理器
func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/restaurants", handleRestaurants)
	mux.HandleFunc("GET /api/quality/issues", handleQualityIssues)
	mux.HandleFunc("GET /api/quality/stats", handleQualityStats)
	mux.HandleFunc("GET /api/storage/stats", handleStorageStats)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleRestaurants(w http.ResponseWriter, r *http.Request) {
	ds := currentDataset(w)
	if ds == nil {
		return
	}

	filtered := analytics.Filter(ds, parseFilterOptions(r))

	limit := queryInt(r, "limit", 100)
	records := filtered.Records()
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}

	writeJSON(w, map[string]interface{}{
		"restaurants": records,
		"count":       len(records),
		"total":       filtered.Len(),
	})
}

func handleQualityIssues(w http.ResponseWriter, r *http.Request) {
	if storage == nil {
		http.Error(w, "storage not initialized", http.StatusServiceUnavailable)
		return
	}

	limit := queryInt(r, "limit", 100)
	issues, err := storage.GetQualityIssues(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"issues": issues,
		"count":  len(issues),
	})
}

func handleQualityStats(w http.ResponseWriter, r *http.Request) {
	if cleaningStats == nil {
		http.Error(w, "cleaning stats not initialized", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, cleaningStats())
}

func handleStorageStats(w http.ResponseWriter, r *http.Request) {
	if storage == nil {
		http.Error(w, "storage not initialized", http.StatusServiceUnavailable)
		return
	}

	stats, err := storage.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, stats)
}

// currentDataset 获取当前数据集，未初始化时返回503
func currentDataset(w http.ResponseWriter) *dataset.Dataset {
	if datasetHolder == nil {
		http.Error(w, "dataset not loaded", http.StatusServiceUnavailable)
		return nil
	}

	ds := datasetHolder.Get()
	if ds == nil {
		http.Error(w, "dataset not loaded", http.StatusServiceUnavailable)
		return nil
	}
	return ds
}

// parseFilterOptions 解析仪表盘筛选参数
func parseFilterOptions(r *http.Request) analytics.FilterOptions {
	q := r.URL.Query()

	opts := analytics.FilterOptions{
		Type: q.Get("type"),
	}
	opts.MinRate = queryFloat(r, "min_rate")
	opts.MaxRate = queryFloat(r, "max_rate")
	opts.MinCost = queryFloat(r, "min_cost")
	opts.MaxCost = queryFloat(r, "max_cost")
	return opts
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

func queryFloat(r *http.Request, key string) *float64 {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return &v
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
