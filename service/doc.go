// Package service 把召回、过滤、排序节点拼装成对外的推荐服务：
// SchemeRecommender（相似 scheme）与 HybridService（协同过滤 + 居住州兜底 + 全量列表）。
package service
