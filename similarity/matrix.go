package similarity

import (
	"fmt"
	"sort"
	"time"

	"github.com/rushteam/schemekit/core"
)

// Matrix 是 scheme 两两之间的余弦相似度矩阵。
// IDs[i] 对应 Values 的第 i 行/列；矩阵为方阵、对称、取值 [0,1]、对角线为 1。
type Matrix struct {
	Version string
	IDs     []int64
	Values  [][]float64
	BuiltAt time.Time

	index map[int64]int
}

// Neighbor 是一个相似 scheme 及其分数。
type Neighbor struct {
	SchemeID int64
	Score    float64
}

// NewMatrix 创建矩阵并建立 ID 索引。
func NewMatrix(version string, ids []int64, values [][]float64) *Matrix {
	m := &Matrix{Version: version, IDs: ids, Values: values, BuiltAt: time.Now()}
	m.reindex()
	return m
}

func (m *Matrix) reindex() {
	m.index = make(map[int64]int, len(m.IDs))
	for i, id := range m.IDs {
		m.index[id] = i
	}
}

// Len 返回维度。
func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.IDs)
}

// IndexOf 返回 scheme 在矩阵中的下标。
func (m *Matrix) IndexOf(id int64) (int, bool) {
	if m == nil {
		return 0, false
	}
	if m.index == nil {
		for i, v := range m.IDs {
			if v == id {
				return i, true
			}
		}
		return 0, false
	}
	i, ok := m.index[id]
	return i, ok
}

// Score 返回两个 scheme 之间的相似度。
func (m *Matrix) Score(a, b int64) (float64, bool) {
	i, ok := m.IndexOf(a)
	if !ok {
		return 0, false
	}
	j, ok := m.IndexOf(b)
	if !ok {
		return 0, false
	}
	return m.Values[i][j], true
}

// Neighbors 返回与 id 最相似的 topN 个 scheme（排除自身），
// 按分数降序、ID 升序。topN <= 0 时返回全部。
func (m *Matrix) Neighbors(id int64, topN int) ([]Neighbor, error) {
	i, ok := m.IndexOf(id)
	if !ok {
		return nil, fmt.Errorf("scheme %d: %w", id, core.ErrSchemeNotFound)
	}
	row := m.Values[i]
	out := make([]Neighbor, 0, len(row))
	for j, score := range row {
		if j == i {
			continue
		}
		out = append(out, Neighbor{SchemeID: m.IDs[j], Score: score})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].SchemeID < out[b].SchemeID
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

// Validate 校验形状：方阵、行数与 ID 数一致、ID 唯一、取值在 [0,1]。
func (m *Matrix) Validate() error {
	if m == nil {
		return fmt.Errorf("nil matrix: %w", core.ErrMatrixUnavailable)
	}
	if len(m.IDs) != len(m.Values) {
		return fmt.Errorf("matrix has %d ids but %d rows: %w", len(m.IDs), len(m.Values), core.ErrMatrixStale)
	}
	seen := make(map[int64]struct{}, len(m.IDs))
	for i, row := range m.Values {
		if len(row) != len(m.IDs) {
			return fmt.Errorf("matrix row %d has %d columns, want %d: %w", i, len(row), len(m.IDs), core.ErrMatrixStale)
		}
		for _, v := range row {
			if v < 0 || v > 1 {
				return fmt.Errorf("matrix row %d has value %v outside [0,1]: %w", i, v, core.ErrMatrixStale)
			}
		}
		if _, dup := seen[m.IDs[i]]; dup {
			return fmt.Errorf("matrix has duplicate id %d: %w", m.IDs[i], core.ErrMatrixStale)
		}
		seen[m.IDs[i]] = struct{}{}
	}
	return nil
}

// CheckDimension 校验维度与当前启用 scheme 数量一致。
func (m *Matrix) CheckDimension(activeCount int) error {
	if m.Len() != activeCount {
		return fmt.Errorf("matrix dimension %d, active schemes %d: %w", m.Len(), activeCount, core.ErrMatrixStale)
	}
	return nil
}
