// Package schemekit 是 scheme 推荐核心：基于 TF-IDF 余弦相似度的相似 scheme 推荐，
// 以及协同过滤 + 居住州兜底的混合推荐。
//
// 设计要点：
//   - Pipeline-first: 推荐逻辑由 Node 串联（Recall → Filter → ReRank）
//   - Labels-first: 召回来源、分数、关键词命中等通过 labels 全链路透传
//   - 矩阵离线构建（schemekit build / 定时任务），在线只读
package schemekit

import "github.com/rushteam/schemekit/pipeline"

// 轻量 facade：便于直接 import "schemekit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
