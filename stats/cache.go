package stats

// node is the cache state of one stat of one entity.
type node struct {
	// stale is set when the node is invalidated and cleared when it is
	// read. Invalidation does not walk past a stale node: its dependents
	// are already dirty.
	stale   bool
	entries map[string]*cacheEntry
}

// cacheEntry is one cached value, keyed by local path.
type cacheEntry struct {
	value float64
	dirty bool
}

// lookup marks ref as read and returns its clean entry for key, if any.
func (e *Engine) lookup(ref nodeRef, key string, useCache bool) (float64, bool) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	nd := e.nodeLocked(ref)
	nd.stale = false
	if !useCache {
		return 0, false
	}
	if ce, ok := nd.entries[key]; ok && !ce.dirty {
		return ce.value, true
	}
	return 0, false
}

// peek returns the entry for key whether clean or dirty.
func (e *Engine) peek(ref nodeRef, key string) (float64, bool) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if nd := e.nodes[ref.ent][ref.stat]; nd != nil {
		if ce, ok := nd.entries[key]; ok {
			return ce.value, true
		}
	}
	return 0, false
}

func (e *Engine) store(ref nodeRef, key string, v float64) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	nd := e.nodeLocked(ref)
	if ce, ok := nd.entries[key]; ok {
		ce.value, ce.dirty = v, false
		return
	}
	nd.entries[key] = &cacheEntry{value: v}
}

// nodeLocked returns ref's node, creating it. Requires cacheMu.
func (e *Engine) nodeLocked(ref nodeRef) *node {
	byStat, ok := e.nodes[ref.ent]
	if !ok {
		byStat = make(map[string]*node)
		e.nodes[ref.ent] = byStat
	}
	nd, ok := byStat[ref.stat]
	if !ok {
		nd = &node{entries: make(map[string]*cacheEntry)}
		byStat[ref.stat] = nd
	}
	return nd
}
