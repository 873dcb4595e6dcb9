package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/domain"
)

const (
	keyListPrefix  = "tasks:list:"
	keyActiveUsers = "users:active"
)

// TaskCache caches per-user task listings and the active-users picker in
// Redis. Listings are permission-scoped, so entries are keyed by the
// requesting user.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

func listKey(userID int64) string {
	return keyListPrefix + strconv.FormatInt(userID, 10)
}

// GetList returns the cached unfiltered listing for userID, or nil on miss.
func (c *TaskCache) GetList(ctx context.Context, userID int64) ([]domain.Task, error) {
	b, err := c.rdb.Get(ctx, listKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []domain.Task
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetList stores the unfiltered listing for userID.
func (c *TaskCache) SetList(ctx context.Context, userID int64, list []domain.Task) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, listKey(userID), b, c.ttl).Err()
}

// InvalidateLists drops every cached listing. A single task write can
// change the listings of its creator, both assignees and every admin, so
// the invalidation is deliberately coarse.
func (c *TaskCache) InvalidateLists(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, keyListPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// InvalidateList drops a single user's cached listing. Used when the
// account itself changes state, so a reactivated user never resumes with
// a listing scoped to their old state.
func (c *TaskCache) InvalidateList(ctx context.Context, userID int64) error {
	return c.rdb.Del(ctx, listKey(userID)).Err()
}

// GetActiveUsers returns the cached assignment picker, or nil on miss.
func (c *TaskCache) GetActiveUsers(ctx context.Context) ([]domain.User, error) {
	b, err := c.rdb.Get(ctx, keyActiveUsers).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var users []domain.User
	if err := json.Unmarshal(b, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetActiveUsers stores the assignment picker. Password hashes never make
// it here: the domain entity excludes them from JSON.
func (c *TaskCache) SetActiveUsers(ctx context.Context, users []domain.User) error {
	b, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyActiveUsers, b, c.ttl).Err()
}

// InvalidateActiveUsers drops the picker after registration or an
// activation change.
func (c *TaskCache) InvalidateActiveUsers(ctx context.Context) error {
	return c.rdb.Del(ctx, keyActiveUsers).Err()
}
