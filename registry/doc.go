// Package registry holds stat type configuration.
//
// A Registry declares, per stat name, which evaluation variant it uses, the
// total expression that combines its parts, how each part combines its
// modifiers (additively or multiplicatively), default base values, and the
// tag universe. Unregistered names fall back to process defaults: a
// Modifiable stat whose total is its base and whose modifiers add.
//
// A Registry is open for registration until Freeze; the stats engine
// freezes it when constructed and only reads it afterwards.
package registry
