// Package statpath parses and formats stat paths.
//
// A stat path names a stat on an entity, optionally narrowed to one of its
// parts and to a tag mask, and optionally routed through a source alias to
// another entity:
//
//	Strength
//	Damage.increased
//	Damage.increased.{FIRE|AXE}
//	Damage.increased.5
//	Leader@Strength
//	Strength.base@Leader
//
// The canonical form puts the alias first. The suffix form is accepted when
// the stat carries a part or tag segment. Aliases are never resolved here;
// resolution happens at evaluation time against the querying entity.
package statpath
