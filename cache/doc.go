// Package cache provides an in-process memo cache keyed by normalized source text.
//
// It provides a generic Cache interface with a bounded LRU memory
// implementation, a Keyer that derives stable keys from source strings,
// and a Loader that de-duplicates concurrent loads of the same key.
package cache
