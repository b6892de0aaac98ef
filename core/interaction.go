package core

import (
	"context"
	"time"
)

// EventKind 是隐式反馈事件类型。
type EventKind string

const (
	EventView  EventKind = "view"
	EventSave  EventKind = "save"
	EventApply EventKind = "apply"
)

// Interaction 是 (user, scheme) 维度的隐式反馈强度，一对 user/scheme 只有一行。
// Value 可累加（view/apply）或翻转（save），取消收藏时置 0 而不是删除。
type Interaction struct {
	UserID    int64     `json:"user_id" db:"user_id"`
	SchemeID  int64     `json:"scheme_id" db:"scheme_id"`
	Value     float64   `json:"interaction_value" db:"interaction_value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InteractionStore 是交互存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（interaction）实现
//   - 同一 (user, scheme) 的并发写入由后端的原子 upsert 串行化
//
// 实现：
//   - interaction.MemoryStore
//   - interaction.RedisStore
//   - interaction.SQLStore
type InteractionStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Record 按策略表写入一次事件，返回写入后的行
	Record(ctx context.Context, userID, schemeID int64, kind EventKind) (Interaction, error)

	// InteractionsFor 返回用户的全部交互，按 Value 降序、SchemeID 升序
	InteractionsFor(ctx context.Context, userID int64) ([]Interaction, error)

	// UsersFor 返回与 scheme 交互过的全部用户行（用于共现计算）
	UsersFor(ctx context.Context, schemeID int64) ([]Interaction, error)

	Close() error
}
