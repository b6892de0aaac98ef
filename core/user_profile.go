package core

import (
	"strings"
	"time"
)

// UserProfile 是混合推荐使用的用户画像。
//
//	维度          作用
//	居住州        state 兜底召回
//	画像属性      软标签过滤（community / occupation / income ...）
//	反馈关键词    协同过滤候选的关键词加权
type UserProfile struct {
	UserID int64

	// StateID 是居住州（state_of_residence），0 表示未知
	StateID int64

	// Attributes 是画像字段，例如 {"community": "sc", "occupation": "farmer"}
	Attributes map[string]string

	// Feedback 是最近一条自由文本反馈，Keywords 由其抽取
	Feedback string
	Keywords []string

	UpdateTime time.Time
}

// NewUserProfile 创建一个新的用户画像。
func NewUserProfile(userID int64) *UserProfile {
	return &UserProfile{
		UserID:     userID,
		Attributes: make(map[string]string),
		UpdateTime: time.Now(),
	}
}

// SetAttribute 设置画像属性（key 与 value 均转小写）。
func (p *UserProfile) SetAttribute(key, value string) {
	if p.Attributes == nil {
		p.Attributes = make(map[string]string)
	}
	p.Attributes[strings.ToLower(strings.TrimSpace(key))] = strings.ToLower(strings.TrimSpace(value))
	p.UpdateTime = time.Now()
}

// Attribute 获取画像属性。
func (p *UserProfile) Attribute(key string) string {
	if p == nil || p.Attributes == nil {
		return ""
	}
	return p.Attributes[key]
}
