// Package corpus 把 scheme 快照转换为向量化所需的文本文档。
//
// 每个启用的 scheme 产出一个 Document，字段按固定顺序拼接：
//
//	title, funding pattern, description, 加权标签, beneficiary types, sponsor types, department name
//
// 输出按 SchemeID 升序，保证相同快照产出相同语料。
package corpus

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"
	"strings"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/text"
)

// Document 是一个 scheme 的语料文本。
type Document struct {
	SchemeID int64
	Text     string
}

// Build 为所有启用的 scheme 生成文档，按 SchemeID 升序。
func Build(schemes []core.Scheme) []Document {
	docs := make([]Document, 0, len(schemes))
	for i := range schemes {
		s := &schemes[i]
		if !s.Active {
			continue
		}
		docs = append(docs, DocumentFor(s))
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].SchemeID < docs[j].SchemeID
	})
	return docs
}

// DocumentFor 生成单个 scheme 的文档，不检查 Active。
func DocumentFor(s *core.Scheme) Document {
	parts := make([]string, 0, 4+len(s.Tags)+len(s.BeneficiaryTypes)+len(s.SponsorTypes))
	parts = append(parts, s.Title, s.FundingPattern, s.Description)
	for _, tag := range s.Tags {
		parts = append(parts, WeightedTagTokens(tag.Name, tag.Weight))
	}
	parts = append(parts, s.BeneficiaryTypes...)
	parts = append(parts, s.SponsorTypes...)
	parts = append(parts, s.DepartmentName)
	return Document{SchemeID: s.ID, Text: text.Join(parts...)}
}

// WeightedTagTokens 把规范化后的标签名重复 round(weight) 次。
// weight <= 0 按 1.0 处理；四舍五入远离零；至少重复一次。
func WeightedTagTokens(tag string, weight float64) string {
	name := text.Normalize(tag)
	if name == "" {
		return ""
	}
	if weight <= 0 || math.IsNaN(weight) {
		weight = 1.0
	}
	n := int(math.Round(weight))
	if n < 1 {
		n = 1
	}
	if n == 1 {
		return name
	}
	return strings.TrimSuffix(strings.Repeat(name+" ", n), " ")
}

// Fingerprint 返回有序语料的 SHA-256（hex），作为矩阵版本号。
func Fingerprint(docs []Document) string {
	h := sha256.New()
	var buf [8]byte
	for _, d := range docs {
		binary.BigEndian.PutUint64(buf[:], uint64(d.SchemeID))
		h.Write(buf[:])
		binary.BigEndian.PutUint64(buf[:], uint64(len(d.Text)))
		h.Write(buf[:])
		h.Write([]byte(d.Text))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// IDs 按顺序提取 SchemeID。
func IDs(docs []Document) []int64 {
	ids := make([]int64, len(docs))
	for i, d := range docs {
		ids[i] = d.SchemeID
	}
	return ids
}
