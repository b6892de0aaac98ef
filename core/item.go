package core

import "github.com/rushteam/schemekit/pkg/utils"

// Item 是推荐链路中的统一承载结构：scheme ID、分数、scheme 快照、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
// Scheme 在召回阶段可以为空，由 service 层按 ID 回填。
type Item struct {
	ID     int64
	Score  float64
	Scheme *Scheme
	Labels map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:     id,
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// ItemIDs 按顺序提取 ID。
func ItemIDs(items []*Item) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		ids = append(ids, it.ID)
	}
	return ids
}
