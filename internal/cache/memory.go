package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// Memory 是默认的进程内缓存：RWMutex 保护的 map，读到过期条目时顺手删除，
// 另起一个低频清理循环兜底。键空间很小（一个保留键加若干游标键），
// 不需要 LRU 或容量上限。
type Memory struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	stop  chan struct{}
}

// NewMemory 创建内存缓存并启动后台清理。
func NewMemory() *Memory {
	m := &Memory{
		items: make(map[string]memoryItem),
		stop:  make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Close 退出后台清理协程。缓存本身仍可读写，只是不再主动清理过期条目。
func (m *Memory) Close() {
	close(m.stop)
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		m.mu.Lock()
		// 双重检查：期间可能已被覆盖成新条目
		if cur, ok := m.items[key]; ok && time.Now().After(cur.expiresAt) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	return item.value, true
}

// Set 覆盖写入，同键永远只有一个活跃条目。
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	m.items[key] = memoryItem{value: value, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
}

func (m *Memory) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			now := time.Now()
			for key, item := range m.items {
				if now.After(item.expiresAt) {
					delete(m.items, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
