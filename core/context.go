package core

import "github.com/rushteam/schemekit/pkg/utils"

// RecommendContext 承载用户/请求信息，贯穿整个 Pipeline 透传。
// UserID 为 0 表示匿名请求，跳过个性化。
type RecommendContext struct {
	UserID int64

	// User 是强类型用户画像（居住州、画像属性、最近反馈关键词）
	User *UserProfile

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级参数，例如 scheme_id（相似推荐的种子）
	Params map[string]any
}

// Anonymous 判断是否为匿名请求。
func (rctx *RecommendContext) Anonymous() bool {
	return rctx == nil || rctx.UserID == 0
}

// GetUserProfile 获取用户画像；User 为空时返回仅含 UserID 的空画像。
func (rctx *RecommendContext) GetUserProfile() *UserProfile {
	if rctx == nil {
		return nil
	}
	if rctx.User != nil {
		return rctx.User
	}
	return NewUserProfile(rctx.UserID)
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// Param 读取请求参数。
func (rctx *RecommendContext) Param(key string) (any, bool) {
	if rctx == nil || rctx.Params == nil {
		return nil, false
	}
	v, ok := rctx.Params[key]
	return v, ok
}
