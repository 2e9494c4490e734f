package rates

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/WeblateOrg/website-sub000/config"
	"github.com/shopspring/decimal"
)

const redisRateTTL = 7 * 24 * time.Hour

// Cache layers a process-lifetime memory map over the optional shared redis
// cache and on-disk day files. It is an explicit object with an injected
// lifetime rather than package state, so tests get isolation for free.
type Cache struct {
	dir    string
	mu     sync.Mutex
	memory map[string]map[string]decimal.Decimal
}

// NewCache stores day files under dir, creating it if needed.
func NewCache(dir string) *Cache {
	_ = os.MkdirAll(dir, 0o755)
	return &Cache{
		dir:    dir,
		memory: make(map[string]map[string]decimal.Decimal),
	}
}

func dayKey(day time.Time) string {
	return day.Format("2006-01-02")
}

// Get returns the cached table for a day, promoting disk/redis hits into the
// memory layer.
func (c *Cache) Get(day time.Time) (map[string]decimal.Decimal, bool) {
	key := dayKey(day)

	c.mu.Lock()
	table, ok := c.memory[key]
	c.mu.Unlock()
	if ok {
		return table, true
	}

	var shared map[string]decimal.Decimal
	if ok, err := config.GetRedisObject("rates:"+key, &shared); err == nil && ok && len(shared) > 0 {
		c.remember(key, shared)
		return shared, true
	}

	data, err := os.ReadFile(filepath.Join(c.dir, key+".json"))
	if err != nil {
		return nil, false
	}
	var stored map[string]decimal.Decimal
	if err := json.Unmarshal(data, &stored); err != nil || len(stored) == 0 {
		return nil, false
	}
	c.remember(key, stored)
	return stored, true
}

// Put stores a day table in every layer. The disk write goes through a temp
// file and rename: concurrent writers may duplicate the fetch, which is
// harmless since the content is deterministic for a date, but no reader may
// ever see a torn file.
func (c *Cache) Put(day time.Time, table map[string]decimal.Decimal) error {
	key := dayKey(day)
	c.remember(key, table)

	_ = config.SetRedisObject("rates:"+key, table, redisRateTTL)

	data, err := json.Marshal(table)
	if err != nil {
		return err
	}
	target := filepath.Join(c.dir, key+".json")
	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), target)
}

func (c *Cache) remember(key string, table map[string]decimal.Decimal) {
	c.mu.Lock()
	c.memory[key] = table
	c.mu.Unlock()
}
