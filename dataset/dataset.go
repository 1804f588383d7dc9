// Package dataset 负责餐厅数据的加载、规范化与清洗
package dataset

import (
	"sync"
	"time"
)

// Dataset 加载后不可变的餐厅数据集
type Dataset struct {
	records  []Record
	source   string
	loadedAt time.Time
}

// FromRecords 从已清洗的记录构造数据集
func FromRecords(records []Record) *Dataset {
	return &Dataset{
		records:  records,
		loadedAt: time.Now(),
	}
}

// Records 返回全部记录
func (d *Dataset) Records() []Record {
	return d.records
}

// Len 返回记录数
func (d *Dataset) Len() int {
	return len(d.records)
}

// Source 返回数据来源路径
func (d *Dataset) Source() string {
	return d.source
}

// LoadedAt 返回加载时间
func (d *Dataset) LoadedAt() time.Time {
	return d.loadedAt
}

// Complete 返回rate/votes/cost均有效的子集，对应原始分析里的dropna
func (d *Dataset) Complete() *Dataset {
	var out []Record
	for _, r := range d.records {
		if r.Rate != nil && r.Votes != nil && r.CostForTwo != nil {
			out = append(out, r)
		}
	}
	return &Dataset{
		records:  out,
		source:   d.source,
		loadedAt: d.loadedAt,
	}
}

// Holder 持有当前数据集，重载时整体换指针
type Holder struct {
	mu sync.RWMutex
	ds *Dataset
}

// NewHolder 创建数据集持有者
func NewHolder(ds *Dataset) *Holder {
	return &Holder{ds: ds}
}

// Get 获取当前数据集
func (h *Holder) Get() *Dataset {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ds
}

// Swap 替换数据集，返回旧数据集
func (h *Holder) Swap(ds *Dataset) *Dataset {
	h.mu.Lock()
	defer h.mu.Unlock()
	old := h.ds
	h.ds = ds
	return old
}
