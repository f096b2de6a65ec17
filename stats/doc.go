// Package stats is the stat evaluation and caching engine.
//
// An [Engine] holds per-entity stat instances, their modifiers, source
// aliases between entities, and a cache of computed values. Stat behavior
// (kind, total expression, part relationships, default bases, tags) comes
// from a frozen [registry.Registry] shared by every entity.
//
// # Stat Kinds
//
//   - Flat: a single value. Set assigns it; literal modifiers add to it.
//   - Modifiable: a base combined with modifiers by the stat's relationship.
//   - Complex: named parts, each a base plus modifiers, combined by a total
//     expression.
//   - Tagged: like Complex, but every part value depends on a query tag mask.
//
// # Paths
//
// Every operation addresses a stat with a path string:
//
//	Strength                  // total
//	Damage.increased          // one part
//	Damage.increased.{FIRE}   // a part under a tag query
//	Leader@Strength           // Strength of the entity bound to alias Leader
//
// # Caching
//
// Reads compute lazily and cache the result. Mutations mark the mutated
// stat and every transitive dependent dirty, following expression
// references within an entity and across source aliases, so the next read
// recomputes only what changed.
//
// # Basic Usage
//
//	reg := registry.New()
//	_ = reg.RegisterTotalExpression("Damage", "(base + added) * (1 + increased / 100)")
//	_ = reg.RegisterParts("Damage", "base", "added", "increased")
//
//	eng, err := stats.New(reg)
//	if err != nil {
//	    return err
//	}
//	_ = eng.Set(ctx, player, "Damage.base", 10)
//	_ = eng.AddModifier(ctx, player, "Damage.increased", stats.Literal(50))
//	v, _ := eng.Evaluate(ctx, player, "Damage") // 15
//
// # Requirements, Instant Effects, and Changes
//
// [Requirements] are conditions such as "Strength >= 10" checked with
// [Engine.RequirementsMet]. An [InstantSet] assigns to, adds to, or
// subtracts from settable values once, through [Engine.ApplyInstant].
// [WithChangeHandler] reports every successful mutation together with the
// stats it invalidated.
//
// # Concurrency
//
// An Engine is safe for concurrent use. Mutations are exclusive; reads run
// concurrently with each other.
package stats
