package report

import (
	"sync"

	"github.com/nergy-se/insight/pkg/api/v1/types"
)

// Cache keeps the latest report per period.
type Cache struct {
	data map[types.Period]*Report
	sync.RWMutex
}

func (c *Cache) Get(p types.Period) *Report {
	c.RLock()
	defer c.RUnlock()
	return c.data[p]
}

func (c *Cache) Set(p types.Period, r *Report) {
	c.Lock()
	if c.data == nil {
		c.data = make(map[types.Period]*Report)
	}
	c.data[p] = r
	c.Unlock()
}

// Delete drops the report of a period that no longer has data.
func (c *Cache) Delete(p types.Period) {
	c.Lock()
	delete(c.data, p)
	c.Unlock()
}
