// Package health runs diagnostic checks and folds their results into one
// status.
//
// A Checker reports Healthy, Degraded, or Unhealthy. The stats engine
// exposes its internal consistency checks as Checkers; hosts register them
// with an Aggregator next to their own:
//
//	agg := health.NewAggregator()
//	for _, c := range engine.Checkers() {
//	    agg.Register(c.Name(), c)
//	}
//	report := agg.Run(ctx)
//	if report.Status != health.StatusHealthy {
//	    log.Printf("stats engine: %v", report.Failures())
//	}
//
// Checks run concurrently through an errgroup, bounded by
// AggregatorConfig.Concurrency, and each is cut off at AggregatorConfig.Timeout.
// The overall status is the worst individual status.
package health
