// Package cache stores compiled styles keyed by a hash of their source and
// compiler options, so unchanged styles are not recompiled.
package cache

import (
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/zeebo/blake3"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/soft_delete"

	"bstgroovy/pkg/compiler"
)

// Entry is one cached compilation.
type Entry struct {
	ID         int64  `gorm:"primaryKey"`
	Hash       string `gorm:"index:idx_hash,unique"`
	ClassName  string
	Groovy     string
	Warnings   int
	CreatedAt  int64
	LastAccess int64 `gorm:"index:idx_last_access"`
	/* 0 false 1 true */
	Deleted soft_delete.DeletedAt `gorm:"softDelete:flag;default:0"`
}

func (Entry) TableName() string {
	return "compile_cache"
}

// Cache is a compile cache backed by a SQLite database.
type Cache struct {
	db  *gorm.DB
	now func() time.Time
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &Cache{db: db, now: time.Now}, nil
}

func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Key hashes src together with every option that changes the output.
func Key(src string, opts compiler.Options) string {
	h := blake3.New()
	fmt.Fprintf(h, "class: %s\nprefix: %s\ndead: %t\n", opts.ClassName, opts.LocalPrefix, opts.EliminateDead)
	names := make([]string, 0, len(opts.Prefixes))
	for name := range opts.Prefixes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(h, "prefix %s: %s\n", name, opts.Prefixes[name])
	}
	fmt.Fprintf(h, "source: %d\n", len(src))
	h.Write([]byte(src))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the live entry for key and refreshes its access time.
func (c *Cache) Get(key string) (*Entry, bool, error) {
	var items []*Entry
	if err := c.db.Model(&Entry{}).Where("`hash`=?", key).
		Limit(1).Find(&items).Error; err != nil {
		return nil, false, err
	}
	if len(items) == 0 {
		return nil, false, nil
	}
	entry := items[0]
	entry.LastAccess = c.now().Unix()
	if err := c.db.Model(&Entry{}).Where("`id`=?", entry.ID).
		Update("last_access", entry.LastAccess).Error; err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

// Put stores entry under key. An evicted row with the same key is
// revived instead of inserted again.
func (c *Cache) Put(key string, entry *Entry) error {
	now := c.now().Unix()
	entry.Hash = key
	entry.LastAccess = now
	return c.db.Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Unscoped().Model(&Entry{}).
			Where("`hash`=?", key).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt == 0 {
			entry.CreatedAt = now
			return tx.Create(entry).Error
		}
		return tx.Unscoped().Model(&Entry{}).Where("`hash`=?", key).
			Updates(map[string]any{
				"class_name":  entry.ClassName,
				"groovy":      entry.Groovy,
				"warnings":    entry.Warnings,
				"last_access": now,
				"deleted":     0,
			}).Error
	})
}

// EvictExpired soft-deletes up to limit entries not accessed since
// cutoff and returns how many it removed.
func (c *Cache) EvictExpired(cutoff time.Time, limit int) (int, error) {
	var expired []*Entry
	if err := c.db.Model(&Entry{}).Where("`last_access` < ?", cutoff.Unix()).
		Limit(limit).Find(&expired).Error; err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}
	ids := make([]int64, len(expired))
	for i, e := range expired {
		ids[i] = e.ID
	}
	if err := c.db.Delete(&Entry{}, ids).Error; err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Len counts the live entries.
func (c *Cache) Len() (int64, error) {
	var cnt int64
	err := c.db.Model(&Entry{}).Count(&cnt).Error
	return cnt, err
}
