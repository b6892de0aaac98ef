package similarity

import (
	"math"
	"sort"

	"github.com/rushteam/schemekit/text"
)

// SparseVector 是按 Index 升序存储的稀疏向量。
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Dot 计算两个稀疏向量的内积（归并遍历）。
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Norm 返回 L2 范数。
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Vectorizer 是 TF-IDF 向量化器：
//   - 停用词在分词后剔除
//   - tf 为原始词频
//   - idf = ln((1+n)/(1+df)) + 1
//   - 每行 L2 归一化，零向量保持为零
type Vectorizer struct {
	vocab map[string]int
	idf   []float64
}

// NewVectorizer 创建空的向量化器，需先 Fit。
func NewVectorizer() *Vectorizer {
	return &Vectorizer{}
}

// Vocabulary 返回词表大小。
func (v *Vectorizer) Vocabulary() int {
	return len(v.vocab)
}

// Fit 基于文档集合计算词表与 idf；词表按字典序编号。
func (v *Vectorizer) Fit(docs []string) {
	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]struct{})
		for _, tok := range text.ContentTokens(d) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.vocab = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	for i, t := range terms {
		v.vocab[t] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
}

// Transform 把单个文档转换为 L2 归一化的 TF-IDF 稀疏向量，未登录词被忽略。
func (v *Vectorizer) Transform(doc string) SparseVector {
	counts := make(map[int]float64)
	for _, tok := range text.ContentTokens(doc) {
		if idx, ok := v.vocab[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return SparseVector{}
	}

	vec := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)
	for _, idx := range vec.Indices {
		vec.Values = append(vec.Values, counts[idx]*v.idf[idx])
	}

	norm := vec.Norm()
	if norm > 0 {
		for i := range vec.Values {
			vec.Values[i] /= norm
		}
	}
	return vec
}

// FitTransform 等价于 Fit 后逐个 Transform。
func (v *Vectorizer) FitTransform(docs []string) []SparseVector {
	v.Fit(docs)
	out := make([]SparseVector, len(docs))
	for i, d := range docs {
		out[i] = v.Transform(d)
	}
	return out
}
