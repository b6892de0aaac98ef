package text

import "strings"

// KeywordExtractor 从自由文本反馈中抽取关键词。
// 实现可以替换为任意 NLP 组件，只要输出规范化后的词。
type KeywordExtractor interface {
	Extract(text string) KeywordSet
}

// StopwordExtractor 是默认实现：规范化、分词、去停用词、去重，保留前 MaxKeywords 个。
type StopwordExtractor struct {
	// MaxKeywords <= 0 表示不限
	MaxKeywords int
}

func (e StopwordExtractor) Extract(text string) KeywordSet {
	tokens := ContentTokens(text)
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	out := make(KeywordSet, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if e.MaxKeywords > 0 && len(out) >= e.MaxKeywords {
			break
		}
	}
	return out
}

// KeywordSet 是一次请求内的关键词集合，元素均已规范化。
type KeywordSet []string

// NewKeywordSet 规范化并去重，空串被丢弃。
func NewKeywordSet(words ...string) KeywordSet {
	seen := make(map[string]struct{}, len(words))
	out := make(KeywordSet, 0, len(words))
	for _, w := range words {
		n := Normalize(w)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func (ks KeywordSet) Empty() bool { return len(ks) == 0 }

// MatchAny 判断规范化后的 text 是否包含任一关键词（子串匹配）。
func (ks KeywordSet) MatchAny(text string) bool {
	if len(ks) == 0 {
		return false
	}
	n := Normalize(text)
	if n == "" {
		return false
	}
	for _, k := range ks {
		if k != "" && strings.Contains(n, k) {
			return true
		}
	}
	return false
}
