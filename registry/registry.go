package registry

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/jonwraymond/statgauge/cache"
	"github.com/jonwraymond/statgauge/expr"
	"github.com/jonwraymond/statgauge/statpath"
	"github.com/jonwraymond/statgauge/tags"
)

// Fallbacks used for names with no registration.
const (
	DefaultKind            = Modifiable
	DefaultTotalExpression = "base"
	DefaultSettablePart    = "base"
)

// Registry is the stat configuration shared by every entity.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Lifecycle: Register* and Set* are valid until Freeze and return
// ErrRegistryFrozen afterwards; lookups are valid at any time.
// - Lookups never fail: unregistered names resolve to fallbacks.
type Registry struct {
	mu            sync.RWMutex
	kinds         map[string]Kind
	totals        map[string]*Total
	relationships map[string]Relationship
	parts         map[string][]string
	settable      map[string]string
	bases         map[string]float64
	defaultKind   Kind
	defaultTotal  *Total
	universe      *tags.Universe
	compiler      *expr.Compiler
	frozen        bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithCompiler shares an expression compiler with the registry.
func WithCompiler(c *expr.Compiler) Option {
	return func(r *Registry) {
		if c != nil {
			r.compiler = c
		}
	}
}

// WithUniverse uses an existing tag universe.
func WithUniverse(u *tags.Universe) Option {
	return func(r *Registry) {
		if u != nil {
			r.universe = u
		}
	}
}

// New creates an open registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		kinds:         make(map[string]Kind),
		totals:        make(map[string]*Total),
		relationships: make(map[string]Relationship),
		parts:         make(map[string][]string),
		settable:      make(map[string]string),
		bases:         make(map[string]float64),
		defaultKind:   DefaultKind,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.universe == nil {
		r.universe = tags.NewUniverse()
	}
	if r.compiler == nil {
		r.compiler = expr.NewCompiler(cache.DefaultPolicy())
	}

	total, err := r.compileTotal(DefaultTotalExpression)
	if err != nil {
		panic(err)
	}
	r.defaultTotal = total
	return r
}

// RegisterStatType fixes the kind of a stat.
func (r *Registry) RegisterStatType(name string, kind Kind) error {
	if err := checkName(name); err != nil {
		return err
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrRegistryFrozen
	}
	r.kinds[name] = kind
	return nil
}

// RegisterTotalExpression compiles src as the total expression of a stat.
// Lower-case bare identifiers in src are parts; all other variables are
// stat references. The expression is rejected, and not installed, when its
// same-entity stat references close a cycle.
func (r *Registry) RegisterTotalExpression(name, src string) error {
	if err := checkName(name); err != nil {
		return err
	}
	total, err := r.compileTotal(src)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrRegistryFrozen
	}
	if path := r.cyclePathLocked(name, total); path != nil {
		return fmt.Errorf("%w: %s", ErrCyclicDependency, strings.Join(path, " -> "))
	}
	r.totals[name] = total
	return nil
}

// RegisterRelationship sets how a part combines its modifiers. key is a
// part name shared by every stat ("more"), a qualified part ("Damage.more"),
// or a Modifiable stat name ("Strength").
func (r *Registry) RegisterRelationship(key string, rel Relationship) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if rel != Add && rel != Mul {
		return fmt.Errorf("%w: %d", ErrUnknownRelationship, int(rel))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrRegistryFrozen
	}
	r.relationships[key] = rel
	return nil
}

// RegisterParts declares the parts of a Complex or Tagged stat. Without a
// declaration the parts are those referenced by the total expression.
func (r *Registry) RegisterParts(name string, parts ...string) error {
	if err := checkName(name); err != nil {
		return err
	}
	for _, p := range parts {
		if err := checkName(p); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrRegistryFrozen
	}
	r.parts[name] = slices.Clone(parts)
	return nil
}

// RegisterSettablePart names the part that Set assigns.
func (r *Registry) RegisterSettablePart(name, part string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := checkName(part); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrRegistryFrozen
	}
	r.settable[name] = part
	return nil
}

// RegisterDefaultBase sets the initial base of "Stat" or "Stat.part".
func (r *Registry) RegisterDefaultBase(key string, v float64) error {
	if err := checkKey(key); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrRegistryFrozen
	}
	r.bases[key] = v
	return nil
}

// RegisterTag registers a named tag with the next free bit.
func (r *Registry) RegisterTag(name string) (tags.Mask, error) {
	if r.Frozen() {
		return 0, ErrRegistryFrozen
	}
	return r.universe.Register(name)
}

// RegisterTagCategory registers a category over a member mask.
func (r *Registry) RegisterTagCategory(name string, members tags.Mask) (tags.Mask, error) {
	if r.Frozen() {
		return 0, ErrRegistryFrozen
	}
	return r.universe.RegisterCategory(name, members)
}

// RegisterTagCategoryNames registers a category over named member tags.
func (r *Registry) RegisterTagCategoryNames(name string, members ...string) (tags.Mask, error) {
	var mask tags.Mask
	for _, m := range members {
		bit, ok := r.universe.Lookup(m)
		if !ok {
			return 0, fmt.Errorf("%w: category %s member %q is not registered", ErrInvalidName, name, m)
		}
		mask |= bit
	}
	return r.RegisterTagCategory(name, mask)
}

// SetDefaultKind sets the kind used for unregistered stats.
func (r *Registry) SetDefaultKind(kind Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrRegistryFrozen
	}
	r.defaultKind = kind
	return nil
}

// SetDefaultTotalExpression sets the total for stats without one. It may
// reference parts only.
func (r *Registry) SetDefaultTotalExpression(src string) error {
	total, err := r.compileTotal(src)
	if err != nil {
		return err
	}
	if len(total.Refs) > 0 {
		return fmt.Errorf("%w: default total %q references stat %q", ErrInvalidTotal, src, total.Refs[0].Var)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrRegistryFrozen
	}
	r.defaultTotal = total
	return nil
}

// Validate reports every configuration problem at once.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.validateLocked()
}

func (r *Registry) validateLocked() error {
	var result *multierror.Error

	for _, name := range sortedKeys(r.totals) {
		if k, ok := r.kinds[name]; ok && !k.HasParts() {
			result = multierror.Append(result,
				fmt.Errorf("%w: stat %s of kind %s cannot have a total expression", ErrInvalidTotal, name, k))
		}
	}

	for _, name := range sortedKeys(r.parts) {
		declared := r.parts[name]
		if k := r.kindLocked(name); !k.HasParts() {
			result = multierror.Append(result,
				fmt.Errorf("%w: stat %s of kind %s cannot declare parts", ErrUnknownPart, name, k))
			continue
		}
		for _, p := range r.totalLocked(name).Parts {
			if !slices.Contains(declared, p) {
				result = multierror.Append(result,
					fmt.Errorf("%w: total of %s references undeclared part %q", ErrUnknownPart, name, p))
			}
		}
	}

	for _, name := range sortedKeys(r.settable) {
		part := r.settable[name]
		k := r.kindLocked(name)
		if k == Flat || k == Tagged {
			result = multierror.Append(result,
				fmt.Errorf("%w: stat %s of kind %s has no settable part", ErrUnknownPart, name, k))
			continue
		}
		if k.HasParts() && !slices.Contains(r.partsLocked(name), part) {
			result = multierror.Append(result,
				fmt.Errorf("%w: settable part %q of %s is not a part", ErrUnknownPart, part, name))
		}
	}

	for _, key := range sortedKeys(r.bases) {
		stat, part, _ := strings.Cut(key, ".")
		if part == "" || !r.kindLocked(stat).HasParts() {
			continue
		}
		if !slices.Contains(r.partsLocked(stat), part) {
			result = multierror.Append(result,
				fmt.Errorf("%w: default base %s names an unknown part", ErrUnknownPart, key))
		}
	}

	return result.ErrorOrNil()
}

// Freeze validates the registry and closes it for registration. A registry
// that fails validation stays open. Freezing twice is a no-op.
func (r *Registry) Freeze() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return nil
	}
	if err := r.validateLocked(); err != nil {
		return err
	}
	r.frozen = true
	r.universe.Freeze()
	return nil
}

// Frozen reports whether the registry is closed for registration.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Kind returns the kind of stat: registered, else Complex when a total
// expression or parts are registered, else the default kind.
func (r *Registry) Kind(stat string) Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.kindLocked(stat)
}

func (r *Registry) kindLocked(stat string) Kind {
	if k, ok := r.kinds[stat]; ok {
		return k
	}
	if _, ok := r.totals[stat]; ok {
		return Complex
	}
	if _, ok := r.parts[stat]; ok {
		return Complex
	}
	return r.defaultKind
}

// Total returns the total expression of stat, or the default total.
func (r *Registry) Total(stat string) *Total {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.totalLocked(stat)
}

func (r *Registry) totalLocked(stat string) *Total {
	if t, ok := r.totals[stat]; ok {
		return t
	}
	return r.defaultTotal
}

// Parts returns the declared parts of stat, else those its total references.
func (r *Registry) Parts(stat string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.partsLocked(stat))
}

func (r *Registry) partsLocked(stat string) []string {
	if p, ok := r.parts[stat]; ok {
		return p
	}
	return r.totalLocked(stat).Parts
}

// HasPart reports whether part is one of stat's parts.
func (r *Registry) HasPart(stat, part string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.partsLocked(stat), part)
}

// Relationship returns how part of stat combines its modifiers. Lookup
// order: "Stat.part", then "part", then Add. An empty part names a
// Modifiable stat itself and is looked up as "Stat", then as its settable
// part ("Stat.base", "base").
func (r *Registry) Relationship(stat, part string) Relationship {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.relationshipLocked(stat, part)
}

func (r *Registry) relationshipLocked(stat, part string) Relationship {
	if part == "" {
		if rel, ok := r.relationships[stat]; ok {
			return rel
		}
		part = r.settableLocked(stat)
	}
	if rel, ok := r.relationships[stat+"."+part]; ok {
		return rel
	}
	if rel, ok := r.relationships[part]; ok {
		return rel
	}
	return Add
}

// SettablePart returns the part Set assigns.
func (r *Registry) SettablePart(stat string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settableLocked(stat)
}

func (r *Registry) settableLocked(stat string) string {
	if p, ok := r.settable[stat]; ok {
		return p
	}
	return DefaultSettablePart
}

// DefaultBase returns the initial base of a part, or of a Modifiable stat
// when part is empty. Without a registration it is the identity of the
// part's relationship.
func (r *Registry) DefaultBase(stat, part string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if part == "" {
		if v, ok := r.bases[stat]; ok {
			return v
		}
		if v, ok := r.bases[stat+"."+r.settableLocked(stat)]; ok {
			return v
		}
	} else if v, ok := r.bases[stat+"."+part]; ok {
		return v
	}
	return r.relationshipLocked(stat, part).Identity()
}

// Universe returns the tag universe.
func (r *Registry) Universe() *tags.Universe {
	return r.universe
}

// Compiler returns the expression compiler.
func (r *Registry) Compiler() *expr.Compiler {
	return r.compiler
}

// ParsePath parses a stat path with the registry's tag names.
func (r *Registry) ParsePath(s string) (statpath.Path, error) {
	return statpath.Parse(s, r.universe)
}

// StatNames returns every stat with any registration, sorted.
func (r *Registry) StatNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for name := range r.kinds {
		seen[name] = struct{}{}
	}
	for name := range r.totals {
		seen[name] = struct{}{}
	}
	for name := range r.parts {
		seen[name] = struct{}{}
	}
	return sortedKeys(seen)
}

// cyclePathLocked returns the stat cycle that installing total on name
// would close, or nil. Only same-entity references are followed.
func (r *Registry) cyclePathLocked(name string, total *Total) []string {
	next := func(stat string) []string {
		t := total
		if stat != name {
			var ok bool
			if t, ok = r.totals[stat]; !ok {
				return nil
			}
		}
		var out []string
		for _, ref := range t.Refs {
			if ref.Path.Alias == "" {
				out = append(out, ref.Path.Stat)
			}
		}
		return out
	}

	visited := make(map[string]bool)
	var walk func(stat string, trail []string) []string
	walk = func(stat string, trail []string) []string {
		trail = append(trail, stat)
		for _, dep := range next(stat) {
			if dep == name {
				return append(trail, dep)
			}
			if visited[dep] {
				continue
			}
			visited[dep] = true
			if found := walk(dep, trail); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(name, nil)
}

func checkName(name string) error {
	if !statpath.IsIdent(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// checkKey accepts "name" or "Stat.part".
func checkKey(key string) error {
	stat, part, qualified := strings.Cut(key, ".")
	if err := checkName(stat); err != nil {
		return err
	}
	if qualified {
		return checkName(part)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
