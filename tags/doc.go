// Package tags provides bitmask tags for filtering stat modifiers.
//
// A modifier tagged with mask m contributes to a query with mask q when
// the modifier's tags are a subset of the query's tags. A Universe names
// the individual tag bits and groups them into categories, so that a
// modifier tagged with a category (ELEMENTAL) also contributes to queries
// for any of its members (FIRE).
package tags
