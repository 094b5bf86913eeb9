package advice

import (
	"sync"

	"github.com/susu3304/chipbot/internal/equity"
	"github.com/susu3304/chipbot/internal/handeval"
)

// Cache remembers the last headline win percentage per session. It only
// feeds the trend line, so losing it on restart is harmless.
type Cache struct {
	mu   sync.Mutex
	last map[string]float64
}

func NewCache() *Cache {
	return &Cache{last: make(map[string]float64)}
}

// Swap stores p for the session and returns what was there before.
func (c *Cache) Swap(sessionID string, p float64) (prev float64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok = c.last[sessionID]
	c.last[sessionID] = p
	return prev, ok
}

// Forget drops the session's entry.
func (c *Cache) Forget(sessionID string) {
	c.mu.Lock()
	delete(c.last, sessionID)
	c.mu.Unlock()
}

// Advisor ties the cache and the risk threshold to Generate.
type Advisor struct {
	Cache     *Cache
	Threshold float64
}

func NewAdvisor(cache *Cache, threshold float64) *Advisor {
	if threshold <= 0 {
		threshold = DefaultRiskThreshold
	}
	return &Advisor{Cache: cache, Threshold: threshold}
}

// Advise produces advice for a fresh simulation result and records its
// headline win rate for the next street.
func (a *Advisor) Advise(sessionID string, res *equity.Result, current handeval.Category, stage equity.Stage) []string {
	in := Input{
		Category:  current,
		Stage:     stage,
		MultiWin:  res.MultiWinPercent(),
		SingleWin: res.SingleWinPercent(),
		Risky:     RiskyCategories(res, current, a.Threshold),
	}
	if prev, ok := a.Cache.Swap(sessionID, in.headline()); ok {
		in.PrevMultiWin = &prev
	}
	return Generate(in)
}
