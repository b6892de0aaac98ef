package interaction

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/rushteam/schemekit/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_interactions (
	user_id           INTEGER NOT NULL,
	scheme_id         INTEGER NOT NULL,
	interaction_value REAL    NOT NULL DEFAULT 0,
	created_at        INTEGER NOT NULL,
	updated_at        INTEGER NOT NULL,
	PRIMARY KEY (user_id, scheme_id)
);
CREATE INDEX IF NOT EXISTS idx_user_interactions_scheme ON user_interactions (scheme_id);
`

const upsertAccumulate = `
INSERT INTO user_interactions (user_id, scheme_id, interaction_value, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, scheme_id) DO UPDATE SET
	interaction_value = user_interactions.interaction_value + excluded.interaction_value,
	updated_at = excluded.updated_at
RETURNING user_id, scheme_id, interaction_value, created_at, updated_at`

const upsertToggle = `
INSERT INTO user_interactions (user_id, scheme_id, interaction_value, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, scheme_id) DO UPDATE SET
	interaction_value = CASE WHEN user_interactions.interaction_value = excluded.interaction_value
		THEN 0 ELSE excluded.interaction_value END,
	updated_at = excluded.updated_at
RETURNING user_id, scheme_id, interaction_value, created_at, updated_at`

// row 是表结构，时间戳以 unix 毫秒存储。
type row struct {
	UserID    int64   `db:"user_id"`
	SchemeID  int64   `db:"scheme_id"`
	Value     float64 `db:"interaction_value"`
	CreatedAt int64   `db:"created_at"`
	UpdatedAt int64   `db:"updated_at"`
}

func (r row) toInteraction() core.Interaction {
	return core.Interaction{
		UserID:    r.UserID,
		SchemeID:  r.SchemeID,
		Value:     r.Value,
		CreatedAt: time.UnixMilli(r.CreatedAt),
		UpdatedAt: time.UnixMilli(r.UpdatedAt),
	}
}

// SQLStore 是 SQLite 实现（modernc 纯 Go 驱动）。
// 每次写入是一条 INSERT ... ON CONFLICT DO UPDATE 语句，同一 (user, scheme) 的并发写入由数据库串行化。
type SQLStore struct {
	db     *sqlx.DB
	policy Policy
	now    func() time.Time
}

// OpenSQLStore 打开（必要时创建）数据库文件并建表。
func OpenSQLStore(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open interaction db: %w", err)
	}
	// SQLite 单写者
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping interaction db: %w", err)
	}
	s, err := NewSQLStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore 在已有连接上建表。
func NewSQLStore(ctx context.Context, db *sqlx.DB) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("migrate interaction db: %w", err)
	}
	return &SQLStore{db: db, policy: DefaultPolicy, now: time.Now}, nil
}

func (s *SQLStore) Name() string { return "sqlite" }

func (s *SQLStore) Record(ctx context.Context, userID, schemeID int64, kind core.EventKind) (core.Interaction, error) {
	rule, err := s.policy.Rule(kind)
	if err != nil {
		return core.Interaction{}, err
	}
	query := upsertAccumulate
	if rule.Mode == ModeToggle {
		query = upsertToggle
	}
	now := s.now().UnixMilli()

	var r row
	if err := s.db.GetContext(ctx, &r, query, userID, schemeID, rule.Value, now, now); err != nil {
		return core.Interaction{}, fmt.Errorf("upsert interaction (%d, %d): %w", userID, schemeID, err)
	}
	return r.toInteraction(), nil
}

func (s *SQLStore) InteractionsFor(ctx context.Context, userID int64) ([]core.Interaction, error) {
	var rows []row
	err := s.db.SelectContext(ctx, &rows, `
SELECT user_id, scheme_id, interaction_value, created_at, updated_at
FROM user_interactions WHERE user_id = ?
ORDER BY interaction_value DESC, scheme_id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("load interactions of user %d: %w", userID, err)
	}
	return toInteractions(rows), nil
}

func (s *SQLStore) UsersFor(ctx context.Context, schemeID int64) ([]core.Interaction, error) {
	var rows []row
	err := s.db.SelectContext(ctx, &rows, `
SELECT user_id, scheme_id, interaction_value, created_at, updated_at
FROM user_interactions WHERE scheme_id = ?
ORDER BY interaction_value DESC, user_id ASC`, schemeID)
	if err != nil {
		return nil, fmt.Errorf("load interactions of scheme %d: %w", schemeID, err)
	}
	return toInteractions(rows), nil
}

func toInteractions(rows []row) []core.Interaction {
	out := make([]core.Interaction, len(rows))
	for i, r := range rows {
		out[i] = r.toInteraction()
	}
	return out
}

func (s *SQLStore) Close() error { return s.db.Close() }

var _ core.InteractionStore = (*SQLStore)(nil)
