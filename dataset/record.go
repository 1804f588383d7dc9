package dataset

import (
	"strconv"
	"strings"
)

// Record 一条清洗后的餐厅记录
type Record struct {
	Name        string   `json:"name"`
	OnlineOrder bool     `json:"online_order"`
	BookTable   bool     `json:"book_table"`
	Rate        *float64 `json:"rate"`
	Votes       *int     `json:"votes"`
	CostForTwo  *float64 `json:"cost_for_two"`
	Type        string   `json:"restaurant_type"`
}

// RawRecord 原始CSV行，未经清洗
type RawRecord struct {
	Name        string
	OnlineOrder string
	BookTable   string
	Rate        string
	Votes       string
	CostForTwo  string
	Type        string
}

// NormalizeRating 解析 "4.1/5" 形式的评分，失败返回nil
func NormalizeRating(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	// 去掉 "/5" 后缀，容忍斜杠前后的空格
	if idx := strings.Index(s, "/"); idx >= 0 {
		denom := strings.TrimSpace(s[idx+1:])
		if denom != "5" {
			return nil
		}
		s = strings.TrimSpace(s[:idx])
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	if v < 0 || v > 5 {
		return nil
	}
	return &v
}

// NormalizeCost 解析带千位分隔符的费用，失败返回nil
func NormalizeCost(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	if v < 0 {
		return nil
	}
	return &v
}

// NormalizeVotes 解析投票数，失败返回nil
func NormalizeVotes(raw string) *int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	if v < 0 {
		return nil
	}
	return &v
}

// ParseYesNo 解析 Yes/No 标志
func ParseYesNo(raw string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes":
		return true, true
	case "no":
		return false, true
	default:
		return false, false
	}
}

// YesNo 将布尔标志还原为分组标签
func YesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
