package driver

import (
	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"

	"github.com/connerohnesorge/sqlite-native-go/internal/engine"
)

// stmtCache is an LRU cache of prepared statements, keyed by query. A cached
// statement is handed to one Stmt at a time, and evicted statements are
// finalized once no Stmt uses them.
type stmtCache struct {
	lru *lru.Cache // Nil if caching is disabled.
}

type cachedStmt struct {
	stmt    *engine.Statement
	busy    bool
	evicted bool
}

func newStmtCache(size int) *stmtCache {
	if size <= 0 {
		return &stmtCache{}
	}
	cache, err := lru.NewWithEvict(size, func(_, value interface{}) {
		value.(*cachedStmt).evict()
	})
	if err != nil {
		panic(err) // Only fails if size <= 0.
	}
	return &stmtCache{lru: cache}
}

// get returns the idle cached statement of |query|, marking it busy.
func (c *stmtCache) get(query string) (*cachedStmt, bool) {
	if c.lru == nil {
		return nil, false
	}
	v, ok := c.lru.Get(query)
	if !ok || v.(*cachedStmt).busy {
		return nil, false
	}
	var cs = v.(*cachedStmt)
	cs.busy = true
	return cs, true
}

// put caches a newly prepared, busy |stmt| of |query|. It returns nil if the
// statement was not cached, as when another statement of |query| is.
func (c *stmtCache) put(query string, stmt *engine.Statement) *cachedStmt {
	if c.lru == nil {
		return nil
	}
	var cs = &cachedStmt{stmt: stmt, busy: true}
	if ok, _ := c.lru.ContainsOrAdd(query, cs); ok {
		return nil
	}
	return cs
}

// release returns |cs| to the cache, or finalizes it if it was evicted
// while in use.
func (c *stmtCache) release(cs *cachedStmt) {
	cs.busy = false
	if cs.evicted {
		cs.finalize()
	}
}

// purge evicts every statement.
func (c *stmtCache) purge() {
	if c.lru != nil {
		c.lru.Purge()
	}
}

func (c *stmtCache) len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

func (cs *cachedStmt) evict() {
	cs.evicted = true
	if !cs.busy {
		cs.finalize()
	}
}

func (cs *cachedStmt) finalize() {
	if err := cs.stmt.Finalize(); err != nil {
		if _, ok := err.(*engine.InvalidStateError); !ok {
			log.WithFields(log.Fields{
				"err": err,
				"sql": cs.stmt.SQL(),
			}).Warn("failed to finalize cached statement")
		}
	}
}
