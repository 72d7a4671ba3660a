// Package scheduler 定时预热"最新一页"缓存：按 cron 表达式重新装配
// 并覆盖写入，让用户请求尽量命中缓存而不是现场回源。
package scheduler

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aravindchilpa/articalapi/internal/assembler"
	"github.com/aravindchilpa/articalapi/internal/cache"
)

const refreshTimeout = 60 * time.Second

type Scheduler struct {
	cron  *cron.Cron
	asm   *assembler.Assembler
	store cache.Store
}

// New 注册定时预热任务。
func New(spec string, asm *assembler.Assembler, store cache.Store) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{cron: c, asm: asm, store: store}

	if _, err := c.AddFunc(spec, s.refreshLatest); err != nil {
		return nil, err
	}
	return s, nil
}

// Start 启动定时器，并延迟跑一轮首刷，避免与启动初期的请求争抢资源。
func (s *Scheduler) Start() {
	s.cron.Start()
	const startupDelay = 15 * time.Second
	time.AfterFunc(startupDelay, func() {
		go s.refreshLatest()
	})
}

// Stop 停止定时器。
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// RunOnce 对外暴露的单次执行入口，方便手动触发预热。
func (s *Scheduler) RunOnce() {
	s.refreshLatest()
}

// refreshLatest 重新装配最新一页并覆盖缓存。失败只记日志：
// 旧缓存条目留在原地，等用户请求走正常的未命中路径。
func (s *Scheduler) refreshLatest() {
	log.Println("start latest batch refresh...")

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	items, err := s.asm.Latest(ctx)
	if err != nil {
		log.Printf("refresh latest batch failed: %v", err)
		return
	}
	bs, err := json.Marshal(items)
	if err != nil {
		log.Printf("marshal latest batch failed: %v", err)
		return
	}

	s.store.Set(ctx, cache.LatestKey(), bs, cache.DefaultTTL)
	log.Printf("latest batch refreshed, %d items", len(items))
}
