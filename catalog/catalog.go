// Package catalog 提供 scheme 只读快照：数据源、按 ID 索引与可原子替换的 Snapshot。
package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/rushteam/schemekit/core"
)

// Source 提供 scheme 全量快照。
type Source interface {
	Schemes(ctx context.Context) ([]core.Scheme, error)
}

// Memory 是内存数据源，主要用于测试。
type Memory []core.Scheme

func (m Memory) Schemes(context.Context) ([]core.Scheme, error) {
	out := make([]core.Scheme, len(m))
	copy(out, m)
	return out, nil
}

// JSONFile 读取 CRUD 侧导出的 JSON 数组快照。is_active 缺省视为 true。
type JSONFile struct {
	Path string
}

type jsonScheme struct {
	core.Scheme
	IsActive *bool `json:"is_active"`
}

func (f JSONFile) Schemes(ctx context.Context) ([]core.Scheme, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", f.Path, err)
	}
	return DecodeJSON(data)
}

// DecodeJSON 解析快照 JSON。
func DecodeJSON(data []byte) ([]core.Scheme, error) {
	var raw []jsonScheme
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	out := make([]core.Scheme, len(raw))
	for i, r := range raw {
		s := r.Scheme
		s.Active = r.IsActive == nil || *r.IsActive
		out[i] = s
	}
	return out, nil
}

// Index 是快照的只读索引，构建后不可修改，可并发读。
type Index struct {
	byID     map[int64]*core.Scheme
	active   []*core.Scheme // 按 ID 升序
	byState  map[int64][]*core.Scheme
	loadedAt time.Time
}

// NewIndex 为快照建立索引；ID 重复时后者覆盖前者。
func NewIndex(schemes []core.Scheme) *Index {
	idx := &Index{
		byID:     make(map[int64]*core.Scheme, len(schemes)),
		byState:  make(map[int64][]*core.Scheme),
		loadedAt: time.Now(),
	}
	for i := range schemes {
		s := schemes[i]
		idx.byID[s.ID] = &s
	}
	for _, s := range idx.byID {
		if !s.Active {
			continue
		}
		idx.active = append(idx.active, s)
	}
	sort.Slice(idx.active, func(i, j int) bool { return idx.active[i].ID < idx.active[j].ID })
	for _, s := range idx.active {
		idx.byState[s.StateID] = append(idx.byState[s.StateID], s)
	}
	return idx
}

// Get 按 ID 查找（包括未启用的 scheme）。
func (idx *Index) Get(id int64) (*core.Scheme, error) {
	if idx == nil {
		return nil, fmt.Errorf("scheme %d: %w", id, core.ErrCatalogSchemeNotFound)
	}
	s, ok := idx.byID[id]
	if !ok {
		return nil, fmt.Errorf("scheme %d: %w", id, core.ErrCatalogSchemeNotFound)
	}
	return s, nil
}

// Lookup 按 ID 查找启用的 scheme。
func (idx *Index) Lookup(id int64) (*core.Scheme, bool) {
	if idx == nil {
		return nil, false
	}
	s, ok := idx.byID[id]
	if !ok || !s.Active {
		return nil, false
	}
	return s, true
}

// Active 返回全部启用的 scheme（ID 升序），调用方不得修改。
func (idx *Index) Active() []*core.Scheme {
	if idx == nil {
		return nil
	}
	return idx.active
}

func (idx *Index) ActiveCount() int {
	if idx == nil {
		return 0
	}
	return len(idx.active)
}

// InState 返回某个州的启用 scheme（ID 升序）。
func (idx *Index) InState(stateID int64) []*core.Scheme {
	if idx == nil {
		return nil
	}
	return idx.byState[stateID]
}

// Schemes 以值拷贝返回全部 scheme，用于重新构建语料。
func (idx *Index) Schemes() []core.Scheme {
	if idx == nil {
		return nil
	}
	out := make([]core.Scheme, 0, len(idx.byID))
	for _, s := range idx.byID {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (idx *Index) LoadedAt() time.Time { return idx.loadedAt }

// Snapshot 持有当前 Index，Refresh 从 Source 重新加载后原子替换。
type Snapshot struct {
	source Source
	logger *zap.Logger
	cur    atomic.Pointer[Index]
}

func NewSnapshot(source Source, logger *zap.Logger) *Snapshot {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Snapshot{source: source, logger: logger}
	s.cur.Store(NewIndex(nil))
	return s
}

// Refresh 重新加载；失败时保留旧索引。
func (s *Snapshot) Refresh(ctx context.Context) (*Index, error) {
	schemes, err := s.source.Schemes(ctx)
	if err != nil {
		s.logger.Warn("catalog refresh failed", zap.Error(err))
		return s.Index(), err
	}
	idx := NewIndex(schemes)
	s.cur.Store(idx)
	s.logger.Info("catalog refreshed",
		zap.Int("schemes", len(schemes)),
		zap.Int("active", idx.ActiveCount()),
	)
	return idx, nil
}

// Index 返回当前索引，永不为 nil。
func (s *Snapshot) Index() *Index {
	return s.cur.Load()
}

// ActiveCount 满足 similarity.ActiveCountFunc。
func (s *Snapshot) ActiveCount(context.Context) (int, error) {
	return s.Index().ActiveCount(), nil
}
