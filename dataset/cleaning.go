package dataset

import (
	"fmt"
	"sync"
	"time"
)

// Rule 清洗规则：从原始行填充目标记录的一个字段
type Rule interface {
	Apply(raw *RawRecord, rec *Record) error
	Name() string
}

// QualityIssue 质量问题
type QualityIssue struct {
	Type      string    `json:"type"`
	Severity  string    `json:"severity"` // low, medium, high
	Message   string    `json:"message"`
	Row       int       `json:"row"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// CleaningStats 清洗统计
type CleaningStats struct {
	TotalProcessed int64            `json:"total_processed"`
	Passed         int64            `json:"passed"`
	Partial        int64            `json:"partial"`
	Issues         map[string]int64 `json:"issues"`
	LastClean      time.Time        `json:"last_clean"`
}

// Cleaner 数据清洗器
type Cleaner struct {
	rules []Rule

	issues     []QualityIssue
	issuesLock sync.RWMutex

	stats     CleaningStats
	statsLock sync.RWMutex
}

// NewCleaner 创建数据清洗器，带默认规则
func NewCleaner() *Cleaner {
	cleaner := &Cleaner{
		stats: CleaningStats{
			Issues: make(map[string]int64),
		},
	}

	cleaner.AddRule(&NameRule{})
	cleaner.AddRule(&ServiceFlagRule{})
	cleaner.AddRule(&RatingRule{})
	cleaner.AddRule(&VotesRule{})
	cleaner.AddRule(&CostRule{})
	cleaner.AddRule(&TypeRule{})

	return cleaner
}

// AddRule 添加清洗规则
func (c *Cleaner) AddRule(rule Rule) {
	c.rules = append(c.rules, rule)
}

// Clean 清洗原始行。字段解析失败记为ParseWarning，行保留、
// 对应字段置空，由聚合阶段跳过；整行不会被丢弃。
// 每次调用都是一轮全量清洗，问题缓冲整体换成本轮结果，
// 重载同一份文件不会让缓冲越积越多；计数器保持累计。
func (c *Cleaner) Clean(raws []RawRecord) ([]Record, []QualityIssue) {
	records := make([]Record, 0, len(raws))
	var issues []QualityIssue

	c.statsLock.Lock()
	defer c.statsLock.Unlock()

	for i := range raws {
		c.stats.TotalProcessed++

		var rec Record
		var rowIssues []QualityIssue

		for _, rule := range c.rules {
			if err := rule.Apply(&raws[i], &rec); err != nil {
				rowIssues = append(rowIssues, QualityIssue{
					Type:      rule.Name(),
					Severity:  "low",
					Message:   err.Error(),
					Row:       i,
					Name:      raws[i].Name,
					Timestamp: time.Now(),
				})
				c.stats.Issues[rule.Name()]++
			}
		}

		if len(rowIssues) > 0 {
			c.stats.Partial++
			issues = append(issues, rowIssues...)
		} else {
			c.stats.Passed++
		}

		records = append(records, rec)
	}

	c.issuesLock.Lock()
	c.issues = append([]QualityIssue(nil), issues...)
	c.issuesLock.Unlock()

	c.stats.LastClean = time.Now()

	return records, issues
}

// GetStats 获取统计信息
func (c *Cleaner) GetStats() CleaningStats {
	c.statsLock.RLock()
	defer c.statsLock.RUnlock()

	return c.stats
}

// GetIssues 获取问题列表
func (c *Cleaner) GetIssues(limit int) []QualityIssue {
	c.issuesLock.RLock()
	defer c.issuesLock.RUnlock()

	if limit <= 0 || limit > len(c.issues) {
		limit = len(c.issues)
	}

	issues := make([]QualityIssue, limit)
	copy(issues, c.issues[len(c.issues)-limit:])
	return issues
}

// ============ 清洗规则实现 ============

// NameRule 餐厅名称规则
type NameRule struct{}

func (r *NameRule) Name() string {
	return "name_validation"
}

func (r *NameRule) Apply(raw *RawRecord, rec *Record) error {
	rec.Name = raw.Name
	if raw.Name == "" {
		return fmt.Errorf("restaurant name is empty")
	}
	return nil
}

// ServiceFlagRule 在线点餐/订座标志规则
type ServiceFlagRule struct{}

func (r *ServiceFlagRule) Name() string {
	return "service_flag_validation"
}

func (r *ServiceFlagRule) Apply(raw *RawRecord, rec *Record) error {
	online, okOnline := ParseYesNo(raw.OnlineOrder)
	book, okBook := ParseYesNo(raw.BookTable)
	rec.OnlineOrder = online
	rec.BookTable = book

	if !okOnline {
		return fmt.Errorf("online_order %q is not yes/no", raw.OnlineOrder)
	}
	if !okBook {
		return fmt.Errorf("book_table %q is not yes/no", raw.BookTable)
	}
	return nil
}

// RatingRule 评分规则
type RatingRule struct{}

func (r *RatingRule) Name() string {
	return "rating_validation"
}

func (r *RatingRule) Apply(raw *RawRecord, rec *Record) error {
	rec.Rate = NormalizeRating(raw.Rate)
	if rec.Rate == nil {
		return fmt.Errorf("rate %q cannot be normalized to [0,5]", raw.Rate)
	}
	return nil
}

// VotesRule 投票数规则
type VotesRule struct{}

func (r *VotesRule) Name() string {
	return "votes_validation"
}

func (r *VotesRule) Apply(raw *RawRecord, rec *Record) error {
	rec.Votes = NormalizeVotes(raw.Votes)
	if rec.Votes == nil {
		return fmt.Errorf("votes %q is not a non-negative integer", raw.Votes)
	}
	return nil
}

// CostRule 双人均价规则
type CostRule struct{}

func (r *CostRule) Name() string {
	return "cost_validation"
}

func (r *CostRule) Apply(raw *RawRecord, rec *Record) error {
	rec.CostForTwo = NormalizeCost(raw.CostForTwo)
	if rec.CostForTwo == nil {
		return fmt.Errorf("approx_cost %q is not a non-negative number", raw.CostForTwo)
	}
	return nil
}

// TypeRule 餐厅类型规则
type TypeRule struct{}

func (r *TypeRule) Name() string {
	return "type_validation"
}

func (r *TypeRule) Apply(raw *RawRecord, rec *Record) error {
	rec.Type = raw.Type
	if raw.Type == "" {
		return fmt.Errorf("listed_in(type) is empty")
	}
	return nil
}
