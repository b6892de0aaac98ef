package core

import "time"

// RecallConfig 是召回/分页相关的配置接口，用于提供默认值。
type RecallConfig interface {
	// DefaultTopN 返回相似推荐默认条数
	DefaultTopN() int

	// DefaultCollaborativeTopN 返回协同过滤默认候选数
	DefaultCollaborativeTopN() int

	// DefaultPageSize 返回默认分页大小
	DefaultPageSize() int

	// MaxPageSize 返回分页大小上限
	MaxPageSize() int

	// DefaultTimeout 返回单个召回源的默认超时时间
	DefaultTimeout() time.Duration
}

// DefaultRecallConfig 是默认的召回配置实现。
type DefaultRecallConfig struct{}

func (c *DefaultRecallConfig) DefaultTopN() int {
	return 10
}

func (c *DefaultRecallConfig) DefaultCollaborativeTopN() int {
	return 5
}

func (c *DefaultRecallConfig) DefaultPageSize() int {
	return 10
}

func (c *DefaultRecallConfig) MaxPageSize() int {
	return 100
}

func (c *DefaultRecallConfig) DefaultTimeout() time.Duration {
	return 3 * time.Second
}
