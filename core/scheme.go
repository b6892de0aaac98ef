package core

import "time"

// Tag 是 scheme 的标签，Weight 用于在语料中放大重要标签（如 scholarship）。
type Tag struct {
	Name   string  `json:"name" yaml:"name"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// EffectiveWeight 返回生效权重：非正数按 1.0 处理。
func (t Tag) EffectiveWeight() float64 {
	if t.Weight <= 0 {
		return 1.0
	}
	return t.Weight
}

// Scheme 是 CRUD 侧导出的只读 scheme 快照，推荐核心只读不写。
type Scheme struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	FundingPattern   string    `json:"funding_pattern"`
	Tags             []Tag     `json:"tags"`
	BeneficiaryTypes []string  `json:"beneficiary_types"`
	SponsorIDs       []int64   `json:"sponsor_ids"`
	SponsorTypes     []string  `json:"sponsor_types"`
	DepartmentID     int64     `json:"department_id"`
	DepartmentName   string    `json:"department_name"`
	StateID          int64     `json:"state_id"`
	IntroducedOn     time.Time `json:"introduced_on"`
	Active           bool      `json:"is_active"`
}

// TagNames 返回标签名列表（保持原顺序）。
func (s *Scheme) TagNames() []string {
	names := make([]string, 0, len(s.Tags))
	for _, t := range s.Tags {
		names = append(names, t.Name)
	}
	return names
}
