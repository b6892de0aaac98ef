package interaction

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/schemekit/core"
)

// toggleScript 在一个原子操作内完成 save 的翻转，并同步双向索引与时间戳。
//
//	KEYS: user hash, scheme hash, created hash, updated hash
//	ARGV: scheme field, user field, toggle value, pair field, now(ms)
var toggleScript = redis.NewScript(`
local cur = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
local target = tonumber(ARGV[3])
local nv = target
if cur == target then nv = 0 end
redis.call('HSET', KEYS[1], ARGV[1], nv)
redis.call('HSET', KEYS[2], ARGV[2], nv)
redis.call('HSETNX', KEYS[3], ARGV[4], ARGV[5])
redis.call('HSET', KEYS[4], ARGV[4], ARGV[5])
return tostring(nv)
`)

// RedisStore 用 hash 存储交互：
//
//	{prefix}:user:{uid}     field=scheme_id  value=interaction_value
//	{prefix}:scheme:{sid}   field=user_id    value=interaction_value
//	{prefix}:created        field={uid}:{sid} value=unix ms
//	{prefix}:updated        field={uid}:{sid} value=unix ms
//
// 累加用 MULTI 内的 HINCRBYFLOAT，翻转用 Lua 脚本，两者都对同一对 (user, scheme) 原子。
type RedisStore struct {
	client *redis.Client
	prefix string
	policy Policy
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "schemekit:interaction"
	}
	return &RedisStore{client: client, prefix: prefix, policy: DefaultPolicy, now: time.Now}
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) userKey(uid int64) string   { return s.prefix + ":user:" + strconv.FormatInt(uid, 10) }
func (s *RedisStore) schemeKey(sid int64) string { return s.prefix + ":scheme:" + strconv.FormatInt(sid, 10) }
func (s *RedisStore) createdKey() string         { return s.prefix + ":created" }
func (s *RedisStore) updatedKey() string         { return s.prefix + ":updated" }

func pairField(uid, sid int64) string {
	return strconv.FormatInt(uid, 10) + ":" + strconv.FormatInt(sid, 10)
}

func (s *RedisStore) Record(ctx context.Context, userID, schemeID int64, kind core.EventKind) (core.Interaction, error) {
	rule, err := s.policy.Rule(kind)
	if err != nil {
		return core.Interaction{}, err
	}
	now := s.now()
	nowMs := strconv.FormatInt(now.UnixMilli(), 10)
	uKey, sKey := s.userKey(userID), s.schemeKey(schemeID)
	sField, uField := strconv.FormatInt(schemeID, 10), strconv.FormatInt(userID, 10)
	pair := pairField(userID, schemeID)

	var value float64
	switch rule.Mode {
	case ModeToggle:
		res, err := toggleScript.Run(ctx, s.client,
			[]string{uKey, sKey, s.createdKey(), s.updatedKey()},
			sField, uField, strconv.FormatFloat(rule.Value, 'f', -1, 64), pair, nowMs,
		).Text()
		if err != nil {
			return core.Interaction{}, fmt.Errorf("toggle interaction: %w", err)
		}
		value, err = strconv.ParseFloat(res, 64)
		if err != nil {
			return core.Interaction{}, fmt.Errorf("parse toggled value %q: %w", res, err)
		}
	default:
		var incr *redis.FloatCmd
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.HIncrByFloat(ctx, uKey, sField, rule.Value)
			pipe.HIncrByFloat(ctx, sKey, uField, rule.Value)
			pipe.HSetNX(ctx, s.createdKey(), pair, nowMs)
			pipe.HSet(ctx, s.updatedKey(), pair, nowMs)
			return nil
		})
		if err != nil {
			return core.Interaction{}, fmt.Errorf("accumulate interaction: %w", err)
		}
		value = incr.Val()
	}

	created, err := s.client.HGet(ctx, s.createdKey(), pair).Int64()
	if err != nil {
		created = now.UnixMilli()
	}
	return core.Interaction{
		UserID:    userID,
		SchemeID:  schemeID,
		Value:     value,
		CreatedAt: time.UnixMilli(created),
		UpdatedAt: now,
	}, nil
}

func (s *RedisStore) InteractionsFor(ctx context.Context, userID int64) ([]core.Interaction, error) {
	vals, err := s.client.HGetAll(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load interactions of user %d: %w", userID, err)
	}
	rows := make([]core.Interaction, 0, len(vals))
	for field, raw := range vals {
		sid, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		rows = append(rows, core.Interaction{UserID: userID, SchemeID: sid, Value: v})
	}
	if err := s.fillTimestamps(ctx, rows); err != nil {
		return nil, err
	}
	sortByValue(rows)
	return rows, nil
}

func (s *RedisStore) UsersFor(ctx context.Context, schemeID int64) ([]core.Interaction, error) {
	vals, err := s.client.HGetAll(ctx, s.schemeKey(schemeID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load interactions of scheme %d: %w", schemeID, err)
	}
	rows := make([]core.Interaction, 0, len(vals))
	for field, raw := range vals {
		uid, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		rows = append(rows, core.Interaction{UserID: uid, SchemeID: schemeID, Value: v})
	}
	sortByValue(rows)
	return rows, nil
}

func (s *RedisStore) fillTimestamps(ctx context.Context, rows []core.Interaction) error {
	if len(rows) == 0 {
		return nil
	}
	fields := make([]string, len(rows))
	for i, r := range rows {
		fields[i] = pairField(r.UserID, r.SchemeID)
	}
	var created, updated *redis.SliceCmd
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		created = pipe.HMGet(ctx, s.createdKey(), fields...)
		updated = pipe.HMGet(ctx, s.updatedKey(), fields...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load interaction timestamps: %w", err)
	}
	for i := range rows {
		rows[i].CreatedAt = msTime(created.Val(), i)
		rows[i].UpdatedAt = msTime(updated.Val(), i)
	}
	return nil
}

func msTime(vals []any, i int) time.Time {
	if i >= len(vals) {
		return time.Time{}
	}
	str, ok := vals[i].(string)
	if !ok {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Close 不关闭共享的 client，由创建者负责。
func (s *RedisStore) Close() error { return nil }

var _ core.InteractionStore = (*RedisStore)(nil)
