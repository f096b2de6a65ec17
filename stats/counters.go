package stats

// Counters are cumulative engine statistics.
type Counters struct {
	Evaluations    uint64 // read operations
	Hits           uint64 // values served from clean cache entries
	Recomputations uint64 // values computed and cached
	Invalidations  uint64 // cache entries marked dirty
	Compilations   uint64 // expressions compiled by the engine's compiler
}

// Counters returns a snapshot of the engine's counters.
func (e *Engine) Counters() Counters {
	return Counters{
		Evaluations:    e.evaluations.Load(),
		Hits:           e.hits.Load(),
		Recomputations: e.recomputes.Load(),
		Invalidations:  e.invalidations.Load(),
		Compilations:   e.compiler.Compilations(),
	}
}
