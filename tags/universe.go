package tags

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Category is a tag that stands for a group of member tags.
type Category struct {
	Name    string
	Bit     Mask
	Members Mask
}

// Universe names tag bits and declares tag categories.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Lifecycle: registration is allowed until Freeze; lookups and expansion
// are valid at any time.
// - Names are case-insensitive and stored upper-cased.
type Universe struct {
	mu         sync.RWMutex
	byName     map[string]Mask
	names      [32]string
	used       Mask
	categories []Category
	frozen     bool
}

// NewUniverse creates an empty tag universe.
func NewUniverse() *Universe {
	return &Universe{byName: make(map[string]Mask)}
}

// Register assigns the lowest free bit to name.
func (u *Universe) Register(name string) (Mask, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	key, err := u.checkNameLocked(name)
	if err != nil {
		return 0, err
	}
	free := ^u.used
	if free == 0 {
		return 0, ErrExhausted
	}
	bit := free & -free
	u.assignLocked(key, bit)
	return bit, nil
}

// RegisterBit binds name to an explicit single bit.
func (u *Universe) RegisterBit(name string, bit Mask) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	key, err := u.checkNameLocked(name)
	if err != nil {
		return err
	}
	if bit.Count() != 1 {
		return fmt.Errorf("%w: %s=%d", ErrNotSingleBit, key, bit)
	}
	if u.used&bit != 0 {
		return fmt.Errorf("%w: %s=%d", ErrBitInUse, key, bit)
	}
	u.assignLocked(key, bit)
	return nil
}

// RegisterCategory assigns a fresh bit to a category covering members.
// Members may include other categories; expansion follows them transitively.
func (u *Universe) RegisterCategory(name string, members Mask) (Mask, error) {
	if members == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmptyCategory, name)
	}
	bit, err := u.Register(name)
	if err != nil {
		return 0, err
	}

	u.mu.Lock()
	u.categories = append(u.categories, Category{
		Name:    strings.ToUpper(strings.TrimSpace(name)),
		Bit:     bit,
		Members: members,
	})
	u.mu.Unlock()
	return bit, nil
}

func (u *Universe) checkNameLocked(name string) (string, error) {
	if u.frozen {
		return "", ErrFrozen
	}
	key := strings.ToUpper(strings.TrimSpace(name))
	if !isIdent(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, exists := u.byName[key]; exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateTag, key)
	}
	return key, nil
}

func (u *Universe) assignLocked(key string, bit Mask) {
	u.byName[key] = bit
	u.used |= bit
	for i := 0; i < 32; i++ {
		if bit == 1<<i {
			u.names[i] = key
			break
		}
	}
}

// Freeze closes the universe for registration.
func (u *Universe) Freeze() {
	u.mu.Lock()
	u.frozen = true
	u.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (u *Universe) Frozen() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.frozen
}

// Lookup returns the bit registered for name. A nil universe knows no tags.
func (u *Universe) Lookup(name string) (Mask, bool) {
	if u == nil {
		return 0, false
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	bit, ok := u.byName[strings.ToUpper(strings.TrimSpace(name))]
	return bit, ok
}

// Categories returns the registered categories in registration order.
func (u *Universe) Categories() []Category {
	if u == nil {
		return nil
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]Category, len(u.categories))
	copy(out, u.categories)
	return out
}

// ExpandPermissive returns q with every category bit ORed in whose members
// intersect q, repeated until no further category applies. The result is a
// matching aid only; it is never the caller's tag set.
func (u *Universe) ExpandPermissive(q Mask) Mask {
	if u == nil {
		return q
	}
	u.mu.RLock()
	defer u.mu.RUnlock()

	expanded := q
	for changed := true; changed; {
		changed = false
		for _, c := range u.categories {
			if expanded&c.Bit == 0 && expanded&c.Members != 0 {
				expanded |= c.Bit
				changed = true
			}
		}
	}
	return expanded
}

// Format renders m as a bracketed token set, e.g. {FIRE|AXE}. Bits without a
// registered name are rendered as their decimal value. The empty mask
// renders as the empty string.
func (u *Universe) Format(m Mask) string {
	if m == 0 {
		return ""
	}
	tokens := make([]string, 0, m.Count())
	for _, bit := range m.Bits() {
		name := ""
		if u != nil {
			u.mu.RLock()
			for i := 0; i < 32; i++ {
				if bit == 1<<i {
					name = u.names[i]
					break
				}
			}
			u.mu.RUnlock()
		}
		if name == "" {
			name = bit.String()
		}
		tokens = append(tokens, name)
	}
	return "{" + strings.Join(tokens, "|") + "}"
}

// Names returns every registered tag and category name, sorted.
func (u *Universe) Names() []string {
	if u == nil {
		return nil
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]string, 0, len(u.byName))
	for name := range u.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
