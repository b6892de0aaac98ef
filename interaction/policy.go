// Package interaction 记录用户对 scheme 的隐式反馈（view / save / apply）。
//
// 每个 (user, scheme) 只有一行，Value 按固定策略表更新：
//
//	view  -> Value += 1.0
//	save  -> Value = 2.0，若已为 2.0 则置 0.0（再次收藏即取消）
//	apply -> Value += 3.0
package interaction

import (
	"fmt"
	"sort"

	"github.com/rushteam/schemekit/core"
)

// Mode 决定 Rule 如何作用于现有值。
type Mode int

const (
	ModeAccumulate Mode = iota
	ModeToggle
)

// Rule 是单个事件类型的更新规则。
type Rule struct {
	Mode  Mode
	Value float64
}

// Apply 返回在 existing 上应用规则后的新值。
func (r Rule) Apply(existing float64) float64 {
	if r.Mode == ModeToggle {
		if existing == r.Value {
			return 0
		}
		return r.Value
	}
	return existing + r.Value
}

// Policy 是事件类型到更新规则的映射。
type Policy map[core.EventKind]Rule

// DefaultPolicy 是默认策略表。
var DefaultPolicy = Policy{
	core.EventView:  {Mode: ModeAccumulate, Value: 1.0},
	core.EventSave:  {Mode: ModeToggle, Value: 2.0},
	core.EventApply: {Mode: ModeAccumulate, Value: 3.0},
}

// Rule 查找事件对应的规则，未知事件返回 core.ErrInvalidEventKind。
func (p Policy) Rule(kind core.EventKind) (Rule, error) {
	r, ok := p[kind]
	if !ok {
		return Rule{}, fmt.Errorf("%q: %w", kind, core.ErrInvalidEventKind)
	}
	return r, nil
}

// ParseEventKind 把外部输入转换为 EventKind。
func ParseEventKind(s string) (core.EventKind, error) {
	k := core.EventKind(s)
	if _, ok := DefaultPolicy[k]; !ok {
		return "", fmt.Errorf("%q: %w", s, core.ErrInvalidEventKind)
	}
	return k, nil
}

// sortByValue 按 Value 降序、SchemeID 升序排序。
func sortByValue(rows []core.Interaction) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return rows[i].Value > rows[j].Value
		}
		if rows[i].SchemeID != rows[j].SchemeID {
			return rows[i].SchemeID < rows[j].SchemeID
		}
		return rows[i].UserID < rows[j].UserID
	})
}
