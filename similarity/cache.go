package similarity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/schemekit/core"
)

// ActiveCountFunc 返回当前启用 scheme 的数量，用于检测矩阵是否过期。
type ActiveCountFunc func(ctx context.Context) (int, error)

// SwapHook 在矩阵替换（包括失效时传入 nil）后被调用。
type SwapHook func(m *Matrix)

// Cache 是进程内的矩阵缓存，显式注入到推荐器中。
//   - Get 首次调用时懒加载，并发加载通过 singleflight 合并
//   - 加载失败后 RetryInterval 内直接返回上次错误，不重复打存储
//   - Reload 失败时保留旧矩阵；版本未变时不替换，不触发回调
//   - Swap / Invalidate 在写锁下替换
type Cache struct {
	loader        Loader
	activeCount   ActiveCountFunc
	retryInterval time.Duration
	logger        *zap.Logger
	hooks         []SwapHook
	now           func() time.Time

	group singleflight.Group

	mu          sync.RWMutex
	matrix      *Matrix
	lastErr     error
	lastAttempt time.Time
}

type CacheOption func(*Cache)

func WithActiveCount(fn ActiveCountFunc) CacheOption {
	return func(c *Cache) { c.activeCount = fn }
}

func WithRetryInterval(d time.Duration) CacheOption {
	return func(c *Cache) { c.retryInterval = d }
}

func WithCacheLogger(l *zap.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithSwapHook(h SwapHook) CacheOption {
	return func(c *Cache) { c.hooks = append(c.hooks, h) }
}

func NewCache(loader Loader, opts ...CacheOption) *Cache {
	c := &Cache{
		loader:        loader,
		retryInterval: 30 * time.Second,
		logger:        zap.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnSwap 追加替换回调。
func (c *Cache) OnSwap(h SwapHook) {
	c.mu.Lock()
	c.hooks = append(c.hooks, h)
	c.mu.Unlock()
}

// Get 返回当前矩阵，必要时懒加载。
func (c *Cache) Get(ctx context.Context) (*Matrix, error) {
	c.mu.RLock()
	m, lastErr, lastAttempt := c.matrix, c.lastErr, c.lastAttempt
	c.mu.RUnlock()
	if m != nil {
		return m, nil
	}
	if lastErr != nil && c.now().Sub(lastAttempt) < c.retryInterval {
		return nil, lastErr
	}
	return c.Reload(ctx)
}

// Reload 从存储重新加载并校验维度，成功后替换当前矩阵。
func (c *Cache) Reload(ctx context.Context) (*Matrix, error) {
	v, err, _ := c.group.Do("reload", func() (any, error) {
		m, err := c.load(ctx)
		if err != nil {
			c.mu.Lock()
			c.lastErr = err
			c.lastAttempt = c.now()
			c.mu.Unlock()
			c.logger.Warn("similarity matrix reload failed", zap.Error(err))
			return nil, err
		}
		c.mu.Lock()
		cur := c.matrix
		if cur != nil && cur.Version == m.Version {
			c.lastErr = nil
			c.mu.Unlock()
			return cur, nil
		}
		c.mu.Unlock()
		c.Swap(m)
		c.logger.Info("similarity matrix loaded",
			zap.String("version", m.Version),
			zap.Int("dimension", m.Len()),
		)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Matrix), nil
}

func (c *Cache) load(ctx context.Context) (*Matrix, error) {
	if c.loader == nil {
		return nil, fmt.Errorf("no matrix loader configured: %w", core.ErrMatrixUnavailable)
	}
	m, err := c.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if c.activeCount != nil {
		n, err := c.activeCount(ctx)
		if err != nil {
			return nil, fmt.Errorf("count active schemes: %w", err)
		}
		if err := m.CheckDimension(n); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Swap 直接替换当前矩阵（例如构建任务刚算出的新矩阵）。
func (c *Cache) Swap(m *Matrix) {
	c.mu.Lock()
	c.matrix = m
	c.lastErr = nil
	c.lastAttempt = time.Time{}
	hooks := append([]SwapHook(nil), c.hooks...)
	c.mu.Unlock()
	for _, h := range hooks {
		h(m)
	}
}

// Invalidate 丢弃当前矩阵，下次 Get 重新加载。
func (c *Cache) Invalidate() {
	c.Swap(nil)
}

// Version 返回当前矩阵版本，未加载时为空串。
func (c *Cache) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.matrix == nil {
		return ""
	}
	return c.matrix.Version
}
