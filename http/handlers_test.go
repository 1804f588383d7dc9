package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"restodash/dataset"
	"restodash/store"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestMain(m *testing.M) {
	ds := dataset.FromRecords([]dataset.Record{
		{Name: "Jalsa", OnlineOrder: true, BookTable: true, Rate: fptr(4.1), Votes: iptr(775), CostForTwo: fptr(800), Type: "Buffet"},
		{Name: "Spice Elephant", OnlineOrder: true, BookTable: false, Rate: fptr(3.8), Votes: iptr(787), CostForTwo: fptr(800), Type: "Buffet"},
		{Name: "Fresh Bites", OnlineOrder: false, BookTable: false, Rate: nil, Votes: iptr(0), CostForTwo: fptr(300), Type: "Cafes"},
	})
	SetDatasetHolder(dataset.NewHolder(ds))
	if err := InitSnapshotCache(8); err != nil {
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func TestHealthHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(handleHealth)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := `{"status":"ok"}`
	if rr.Body.String() != expected+"\n" && rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestDashboardSummaryHandler(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/dashboard/summary", nil)
	rr := httptest.NewRecorder()

	handleDashboardSummary(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var body struct {
		TotalRestaurants int     `json:"total_restaurants"`
		AvgRating        float64 `json:"avg_rating"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.TotalRestaurants != 3 {
		t.Errorf("total_restaurants = %d, want 3", body.TotalRestaurants)
	}
	if body.AvgRating < 3.94 || body.AvgRating > 3.96 {
		t.Errorf("avg_rating = %v, want 3.95", body.AvgRating)
	}
}

func TestOnlineOrderHandlerOmitsEmptyGroups(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/dashboard/online-order", nil)
	rr := httptest.NewRecorder()

	handleOnlineOrderRating(rr, req)

	var body struct {
		MeanRating map[string]float64 `json:"mean_rating"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	if _, ok := body.MeanRating["Yes"]; !ok {
		t.Error("expected a Yes group")
	}
	// 唯一的No行评分无效，分组整体省略
	if _, ok := body.MeanRating["No"]; ok {
		t.Error("No group should be omitted")
	}
}

func TestRestaurantsHandlerFilters(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "no filter", query: "", want: 3},
		{name: "by type", query: "?type=Cafes", want: 1},
		{name: "by min rating", query: "?min_rate=4.0", want: 1},
		{name: "by cost range", query: "?min_cost=500&max_cost=900", want: 2},
		{name: "unmatched type", query: "?type=Pubs", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/restaurants"+tt.query, nil)
			rr := httptest.NewRecorder()

			handleRestaurants(rr, req)

			var body struct {
				Count int `json:"count"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Count != tt.want {
				t.Errorf("count = %d, want %d", body.Count, tt.want)
			}
		})
	}
}

func TestSnapshotHandlerCaches(t *testing.T) {
	ResetSnapshotCache()

	req := httptest.NewRequest("GET", "/api/dashboard/snapshot?type=Buffet", nil)
	rr := httptest.NewRecorder()
	handleDashboardSnapshot(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	first := rr.Body.String()

	// 第二次请求命中缓存，内容一致
	rr2 := httptest.NewRecorder()
	handleDashboardSnapshot(rr2, httptest.NewRequest("GET", "/api/dashboard/snapshot?type=Buffet", nil))
	if rr2.Body.String() != first {
		t.Error("cached snapshot differs from first response")
	}

	if snapshotCache.Len() != 1 {
		t.Errorf("cache has %d entries, want 1", snapshotCache.Len())
	}

	ResetSnapshotCache()
	if snapshotCache.Len() != 0 {
		t.Error("ResetSnapshotCache did not purge entries")
	}
}

func TestTopVotedHandler(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/dashboard/top-voted?limit=1", nil)
	rr := httptest.NewRecorder()

	handleTopVoted(rr, req)

	var body struct {
		Restaurants []struct {
			Name  string `json:"name"`
			Votes int    `json:"votes"`
		} `json:"restaurants"`
		Order string `json:"order"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	if len(body.Restaurants) != 1 {
		t.Fatalf("got %d restaurants, want 1", len(body.Restaurants))
	}
	if body.Restaurants[0].Name != "Spice Elephant" {
		t.Errorf("top voted = %q, want Spice Elephant", body.Restaurants[0].Name)
	}
	if body.Order != "desc" {
		t.Errorf("order = %q, want desc", body.Order)
	}
}

func TestTopVotedHandlerStoreBacked(t *testing.T) {
	s, err := store.Open(store.Config{DBPath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if err := s.ReplaceDataset(context.Background(), datasetHolder.Get()); err != nil {
		t.Fatalf("ReplaceDataset() error = %v", err)
	}

	SetStorage(s)
	defer SetStorage(nil)

	req := httptest.NewRequest("GET", "/api/dashboard/top-voted", nil)
	rr := httptest.NewRecorder()

	handleTopVoted(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var body struct {
		Restaurants []struct {
			Name  string `json:"name"`
			Votes int    `json:"votes"`
		} `json:"restaurants"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	// sqlite榜单与内存聚合一致：Fresh Bites缺评分，不参与排名
	if len(body.Restaurants) != 2 {
		t.Fatalf("got %d restaurants, want 2", len(body.Restaurants))
	}
	if body.Restaurants[0].Name != "Spice Elephant" || body.Restaurants[0].Votes != 787 {
		t.Errorf("top voted = %+v, want Spice Elephant with 787 votes", body.Restaurants[0])
	}
}

func TestQualityIssuesHandlerWithoutStorage(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/quality/issues", nil)
	rr := httptest.NewRecorder()

	handleQualityIssues(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when storage is not wired", rr.Code)
	}
}
