package dataset

import (
	"testing"
)

func TestNewCleaner(t *testing.T) {
	cleaner := NewCleaner()
	if cleaner == nil {
		t.Fatal("NewCleaner returned nil")
	}

	if len(cleaner.rules) == 0 {
		t.Error("No default rules added")
	}
}

func TestCleanerKeepsPartialRows(t *testing.T) {
	cleaner := NewCleaner()

	raws := []RawRecord{
		{Name: "Jalsa", OnlineOrder: "Yes", BookTable: "Yes", Rate: "4.1/5", Votes: "775", CostForTwo: "800", Type: "Buffet"},
		{Name: "Fresh Bites", OnlineOrder: "No", BookTable: "No", Rate: "NEW", Votes: "0", CostForTwo: "300", Type: "Cafes"},
	}

	records, issues := cleaner.Clean(raws)

	if len(records) != 2 {
		t.Fatalf("expected 2 records kept, got %d", len(records))
	}

	// 第一行完全有效
	if records[0].Rate == nil || *records[0].Rate != 4.1 {
		t.Errorf("record 0 rate = %v, want 4.1", records[0].Rate)
	}
	if records[0].Votes == nil || *records[0].Votes != 775 {
		t.Errorf("record 0 votes = %v, want 775", records[0].Votes)
	}

	// 第二行评分不可解析，但行保留、其他字段正常
	if records[1].Rate != nil {
		t.Errorf("record 1 rate = %v, want nil for unparsable rating", *records[1].Rate)
	}
	if records[1].CostForTwo == nil || *records[1].CostForTwo != 300 {
		t.Errorf("record 1 cost = %v, want 300", records[1].CostForTwo)
	}

	if len(issues) != 1 {
		t.Fatalf("expected 1 quality issue, got %d", len(issues))
	}
	if issues[0].Type != "rating_validation" {
		t.Errorf("issue type = %q, want rating_validation", issues[0].Type)
	}
	if issues[0].Row != 1 {
		t.Errorf("issue row = %d, want 1", issues[0].Row)
	}
}

func TestCleanerStats(t *testing.T) {
	cleaner := NewCleaner()

	raws := []RawRecord{
		{Name: "A", OnlineOrder: "Yes", BookTable: "No", Rate: "4.0/5", Votes: "10", CostForTwo: "500", Type: "Dining"},
		{Name: "B", OnlineOrder: "Yes", BookTable: "No", Rate: "NEW", Votes: "x", CostForTwo: "500", Type: "Dining"},
		{Name: "C", OnlineOrder: "huh", BookTable: "No", Rate: "3.5/5", Votes: "20", CostForTwo: "1,200", Type: "Dining"},
	}

	cleaner.Clean(raws)
	stats := cleaner.GetStats()

	if stats.TotalProcessed != 3 {
		t.Errorf("TotalProcessed = %d, want 3", stats.TotalProcessed)
	}
	if stats.Passed != 1 {
		t.Errorf("Passed = %d, want 1", stats.Passed)
	}
	if stats.Partial != 2 {
		t.Errorf("Partial = %d, want 2", stats.Partial)
	}
	if stats.Issues["rating_validation"] != 1 {
		t.Errorf("rating_validation issues = %d, want 1", stats.Issues["rating_validation"])
	}
	if stats.Issues["votes_validation"] != 1 {
		t.Errorf("votes_validation issues = %d, want 1", stats.Issues["votes_validation"])
	}
	if stats.Issues["service_flag_validation"] != 1 {
		t.Errorf("service_flag_validation issues = %d, want 1", stats.Issues["service_flag_validation"])
	}
}

func TestCleanerGetIssues(t *testing.T) {
	cleaner := NewCleaner()

	raws := []RawRecord{
		{Name: "A", OnlineOrder: "Yes", BookTable: "No", Rate: "NEW", Votes: "1", CostForTwo: "100", Type: "Cafes"},
		{Name: "B", OnlineOrder: "Yes", BookTable: "No", Rate: "-", Votes: "2", CostForTwo: "200", Type: "Cafes"},
	}
	cleaner.Clean(raws)

	issues := cleaner.GetIssues(1)
	if len(issues) != 1 {
		t.Fatalf("GetIssues(1) returned %d issues, want 1", len(issues))
	}
	if issues[0].Name != "B" {
		t.Errorf("expected most recent issue, got one for %q", issues[0].Name)
	}

	all := cleaner.GetIssues(0)
	if len(all) != 2 {
		t.Errorf("GetIssues(0) returned %d issues, want 2", len(all))
	}
}

func TestCleanerIssuesReplacedOnReclean(t *testing.T) {
	cleaner := NewCleaner()

	raws := []RawRecord{
		{Name: "A", OnlineOrder: "Yes", BookTable: "No", Rate: "NEW", Votes: "1", CostForTwo: "100", Type: "Cafes"},
	}

	// 同一份文件重复清洗，问题缓冲不能越积越多
	cleaner.Clean(raws)
	cleaner.Clean(raws)

	if got := cleaner.GetIssues(0); len(got) != 1 {
		t.Errorf("GetIssues(0) returned %d issues after two passes, want 1", len(got))
	}

	// 文件修好后重新清洗，旧告警应被清空；累计计数保留
	fixed := []RawRecord{
		{Name: "A", OnlineOrder: "Yes", BookTable: "No", Rate: "4.0/5", Votes: "1", CostForTwo: "100", Type: "Cafes"},
	}
	cleaner.Clean(fixed)

	if got := cleaner.GetIssues(0); len(got) != 0 {
		t.Errorf("GetIssues(0) returned %d issues after clean pass, want 0", len(got))
	}
	if stats := cleaner.GetStats(); stats.TotalProcessed != 3 {
		t.Errorf("TotalProcessed = %d, want 3", stats.TotalProcessed)
	}
}
