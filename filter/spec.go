package filter

import (
	"slices"
	"strings"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/pkg/conv"
)

// Spec 是混合推荐与列表页共用的过滤条件。每个字段为空表示该维度不约束。
type Spec struct {
	// StateIDs scheme 所属州在集合内
	StateIDs []int64 `json:"state_ids,omitempty" yaml:"state_ids"`

	// DepartmentIDs scheme 所属部门在集合内
	DepartmentIDs []int64 `json:"department_ids,omitempty" yaml:"department_ids"`

	// BeneficiaryKeywords 任一关键词是某个受益人类型的子串（忽略大小写）
	BeneficiaryKeywords []string `json:"beneficiary_keywords,omitempty" yaml:"beneficiary_keywords"`

	// SponsorIDs 与 scheme 的 sponsor 有交集
	SponsorIDs []int64 `json:"sponsor_ids,omitempty" yaml:"sponsor_ids"`

	// FundingPattern 是 funding pattern 的子串（忽略大小写）
	FundingPattern string `json:"funding_pattern,omitempty" yaml:"funding_pattern"`

	// SearchQuery 是标题或描述的子串（忽略大小写）
	SearchQuery string `json:"search_query,omitempty" yaml:"search_query"`

	// Tag 是某个标签名的子串
	Tag string `json:"tag,omitempty" yaml:"tag"`

	// Expr 是可选的 CEL 表达式，由 ExprFilter 求值
	Expr string `json:"expr,omitempty" yaml:"expr"`
}

// profileFields 是画像字段到合法取值的固定映射，顺序决定 ProfileTagsFor 的输出顺序。
var profileFields = []struct {
	field  string
	values []string
}{
	{"community", []string{"sc", "st", "obc", "general"}},
	{"minority", []string{"muslim", "christian", "sikh", "buddhist", "parsi", "jain"}},
	{"education", []string{"undergraduate", "postgraduate", "phd", "school"}},
	{"disability", []string{"physical", "visual", "hearing", "intellectual"}},
	{"occupation", []string{"farmer", "student", "teacher", "entrepreneur", "laborer"}},
	{"income", []string{"bpl", "middle", "high"}},
}

// ProfileTagsFor 把画像属性转换为标签；不在合法取值内的属性被忽略。
// 画像标签只用于排序加权，不参与过滤。
func ProfileTagsFor(attrs map[string]string) []string {
	var out []string
	for _, pf := range profileFields {
		v := strings.ToLower(strings.TrimSpace(attrs[pf.field]))
		if v != "" && slices.Contains(pf.values, v) {
			out = append(out, v)
		}
	}
	return out
}

// ParseSpec 从宽松的请求体（例如 JSON 解码后的 map）构造 Spec。
// 无法解析的 ID 会被丢弃，而不是让整个请求失败。
func ParseSpec(m map[string]any) Spec {
	if m == nil {
		return Spec{}
	}
	return Spec{
		StateIDs:            conv.SliceAnyToInt64(m["state_ids"]),
		DepartmentIDs:       conv.SliceAnyToInt64(m["department_ids"]),
		BeneficiaryKeywords: conv.SliceAnyToString(m["beneficiary_keywords"]),
		SponsorIDs:          conv.SliceAnyToInt64(m["sponsor_ids"]),
		FundingPattern:      strings.TrimSpace(conv.ConfigGet(m, "funding_pattern", "")),
		SearchQuery:         strings.TrimSpace(conv.ConfigGet(m, "search_query", "")),
		Tag:                 strings.TrimSpace(conv.ConfigGet(m, "tag", "")),
		Expr:                strings.TrimSpace(conv.ConfigGet(m, "expr", "")),
	}
}

// Empty 判断是否没有任何约束。
func (s Spec) Empty() bool {
	return len(s.StateIDs) == 0 && len(s.DepartmentIDs) == 0 &&
		len(s.BeneficiaryKeywords) == 0 && len(s.SponsorIDs) == 0 &&
		s.FundingPattern == "" && s.SearchQuery == "" && s.Tag == "" &&
		s.Expr == ""
}

// Match 判断 scheme 是否满足除 Expr 外的全部条件；未启用的 scheme 永不匹配。
func (s Spec) Match(sc *core.Scheme) bool {
	if sc == nil || !sc.Active {
		return false
	}
	if len(s.StateIDs) > 0 && !slices.Contains(s.StateIDs, sc.StateID) {
		return false
	}
	if len(s.DepartmentIDs) > 0 && !slices.Contains(s.DepartmentIDs, sc.DepartmentID) {
		return false
	}
	if len(s.BeneficiaryKeywords) > 0 && !anyContains(sc.BeneficiaryTypes, s.BeneficiaryKeywords) {
		return false
	}
	if len(s.SponsorIDs) > 0 && !slices.ContainsFunc(sc.SponsorIDs, func(id int64) bool {
		return slices.Contains(s.SponsorIDs, id)
	}) {
		return false
	}
	if s.FundingPattern != "" && !containsFold(sc.FundingPattern, s.FundingPattern) {
		return false
	}
	if s.SearchQuery != "" && !containsFold(sc.Title, s.SearchQuery) && !containsFold(sc.Description, s.SearchQuery) {
		return false
	}
	if s.Tag != "" && !anyContains(sc.TagNames(), []string{s.Tag}) {
		return false
	}
	return true
}

// HasAnyTag 判断 scheme 是否有标签名包含 tags 中任一元素（忽略大小写）。
func HasAnyTag(sc *core.Scheme, tags []string) bool {
	if sc == nil || len(tags) == 0 {
		return false
	}
	return anyContains(sc.TagNames(), tags)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// anyContains 判断 haystacks 中是否有任一元素包含 needles 中任一元素（忽略大小写）。
func anyContains(haystacks, needles []string) bool {
	for _, h := range haystacks {
		for _, n := range needles {
			if n != "" && containsFold(h, n) {
				return true
			}
		}
	}
	return false
}
