// Package cache 提供带 TTL 的键值缓存，用来按分页游标记忆化整批新闻。
// 这是进程里唯一的共享可变状态；同键并发写采用 last-write-wins。
package cache

import (
	"context"
	"time"
)

// DefaultTTL 所有缓存条目统一一小时过期，不支持按次调用定制。
const DefaultTTL = time.Hour

// 键空间：最新一页用保留键，其余每个上游游标一个键。
const latestKey = "news:latest"

// Store 抽象缓存后端：默认内存实现，配置了 REDIS_ADDR 时换成 Redis。
// 值统一为 JSON 字节，两种后端行为一致。
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// LatestKey 返回"最新一页"的保留键。
func LatestKey() string {
	return latestKey
}

// MoreKey 返回某个上游分页游标对应的缓存键。
func MoreKey(cursor string) string {
	return "news:more:" + cursor
}
