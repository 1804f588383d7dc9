package dataset

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// 源文件期望的列名
const (
	colName        = "name"
	colOnlineOrder = "online_order"
	colBookTable   = "book_table"
	colRate        = "rate"
	colVotes       = "votes"
	colCost        = "approx_cost(for two people)"
	colType        = "listed_in(type)"
)

var requiredColumns = []string{
	colName, colOnlineOrder, colBookTable, colRate, colVotes, colCost, colType,
}

// LoadError 结构性加载失败：文件缺失、不可解析、缺少必需列
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load dataset %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadOptions 加载选项
type LoadOptions struct {
	// Charset 源文件编码，空或"utf-8"直接读取，"gbk"经转码读取
	Charset string
	// Cleaner 为nil时每次加载新建；跨重载复用可累计清洗统计
	Cleaner *Cleaner
}

// Load 读取CSV并清洗为数据集。结构性失败返回LoadError；
// 行级解析失败作为QualityIssue返回，不影响加载。
func Load(path string, opts LoadOptions) (*Dataset, []QualityIssue, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, &LoadError{Path: path, Err: err}
	}
	defer file.Close()

	var reader io.Reader = file
	switch strings.ToLower(opts.Charset) {
	case "", "utf-8", "utf8":
	case "gbk":
		reader = transform.NewReader(file, simplifiedchinese.GBK.NewDecoder())
	default:
		return nil, nil, &LoadError{Path: path, Err: fmt.Errorf("unsupported charset %q", opts.Charset)}
	}

	df := dataframe.ReadCSV(reader)
	if df.Err != nil {
		return nil, nil, &LoadError{Path: path, Err: fmt.Errorf("parse csv: %w", df.Err)}
	}

	index, err := columnIndex(df.Names())
	if err != nil {
		return nil, nil, &LoadError{Path: path, Err: err}
	}

	raws := rawRecords(df.Records(), index)

	cleaner := opts.Cleaner
	if cleaner == nil {
		cleaner = NewCleaner()
	}
	records, issues := cleaner.Clean(raws)

	ds := FromRecords(records)
	ds.source = path
	return ds, issues, nil
}

// columnIndex 校验必需列并返回列名到下标的映射
func columnIndex(names []string) (map[string]int, error) {
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[strings.TrimSpace(name)] = i
	}

	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}
	return index, nil
}

// rawRecords 将CSV行转为RawRecord，跳过表头
func rawRecords(rows [][]string, index map[string]int) []RawRecord {
	if len(rows) <= 1 {
		return nil
	}

	cell := func(row []string, col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	raws := make([]RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		raws = append(raws, RawRecord{
			Name:        cell(row, colName),
			OnlineOrder: cell(row, colOnlineOrder),
			BookTable:   cell(row, colBookTable),
			Rate:        cell(row, colRate),
			Votes:       cell(row, colVotes),
			CostForTwo:  cell(row, colCost),
			Type:        cell(row, colType),
		})
	}
	return raws
}
