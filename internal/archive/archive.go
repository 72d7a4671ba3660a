// Package archive 把装配好的新闻落到 Postgres，按日期提供历史查询。
// 存档是旁路写入：配了 POSTGRES_DSN 才启用，写失败只记日志，
// 绝不影响请求本身，缓存仍是唯一的必需共享状态。
package archive

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/aravindchilpa/articalapi/internal/assembler"
)

// Article 是一条归档新闻。Image 存的是令牌化后的代理地址，
// 密钥不变的前提下历史接口可以直接回放。
type Article struct {
	HashID       string            `gorm:"primaryKey;size:64" json:"hashId"`
	Title        string            `gorm:"size:512" json:"title"`
	Content      string            `gorm:"type:text" json:"content"`
	Image        string            `gorm:"size:2048" json:"image"`
	URL          string            `gorm:"size:1024" json:"url"`
	MinNewsID    string            `gorm:"size:128;index" json:"minNewsId"`
	ArchivedDate string            `gorm:"size:10;index" json:"archivedDate"` // YYYY-MM-DD
	ExtraData    datatypes.JSONMap `gorm:"type:jsonb" json:"extraData"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Archive 持有数据库连接。
type Archive struct {
	db *gorm.DB
}

// New 连接 Postgres 并迁移表结构。
func New(dsn string) (*Archive, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("archive: open postgres: %w", err)
	}
	if err := db.AutoMigrate(&Article{}); err != nil {
		return nil, fmt.Errorf("archive: migrate: %w", err)
	}
	return &Archive{db: db}, nil
}

// SaveBatch 归档一批装配结果，hash id 作幂等键：已存在则更新标题等字段。
func (a *Archive) SaveBatch(items []assembler.NewsItem) error {
	date := time.Now().Format("2006-01-02")
	for _, it := range items {
		if it.HashID == "" {
			continue
		}
		title := truncateRunesDB(toValidUTF8(it.Title), 512)
		rec := &Article{
			HashID:       it.HashID,
			Title:        title,
			Content:      toValidUTF8(it.Content),
			Image:        it.Image,
			URL:          it.URL,
			MinNewsID:    it.MinNewsID,
			ArchivedDate: date,
			ExtraData:    datatypes.JSONMap{"index": it.Index},
		}
		if err := a.db.Where("hash_id = ?", it.HashID).FirstOrCreate(rec).Error; err != nil {
			return fmt.Errorf("archive: save %s: %w", it.HashID, err)
		}
		if err := a.db.Model(rec).Updates(map[string]any{
			"title":       title,
			"image":       it.Image,
			"min_news_id": it.MinNewsID,
		}).Error; err != nil {
			return fmt.Errorf("archive: update %s: %w", it.HashID, err)
		}
	}
	return nil
}

// ListByDate 返回某天的归档新闻，date 为空时取当天。
func (a *Archive) ListByDate(date string, limit int) ([]Article, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var list []Article
	err := a.db.Where("archived_date = ?", date).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("archive: list by date: %w", err)
	}
	return list, nil
}

// toValidUTF8 把字符串规范成合法 UTF-8，避免上游混编字节导致入库失败。
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

// truncateRunesDB 按 rune 截断，保证不超出 varchar 列宽。
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
