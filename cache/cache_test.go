package cache

import (
	"strings"
	"testing"
)

// TestCacheKey_Validation tests key validation rules.
func TestCacheKey_Validation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"empty key", "", ErrInvalidKey},
		{"valid key", "base * (1 + increased)", nil},
		{"too long", strings.Repeat("x", MaxKeyLength+1), ErrKeyTooLong},
		{"contains newline", "key\nwith\nnewlines", ErrInvalidKey},
		{"contains carriage return", "key\rwith\rreturns", ErrInvalidKey},
		{"whitespace only", "   ", ErrInvalidKey},
		{"max length exactly", strings.Repeat("x", MaxKeyLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if err != tt.wantErr {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

// TestCacheInterface_CompileCheck verifies the Cache interface contract.
func TestCacheInterface_CompileCheck(t *testing.T) {
	var _ Cache[string] = (*mockCache[string])(nil)
}

// mockCache is a test double that implements Cache.
type mockCache[V any] struct {
	m map[string]V
}

func (m *mockCache[V]) Get(key string) (V, bool) {
	v, ok := m.m[key]
	return v, ok
}

func (m *mockCache[V]) Set(key string, value V) {
	if m.m == nil {
		m.m = make(map[string]V)
	}
	m.m[key] = value
}

func (m *mockCache[V]) Delete(key string) { delete(m.m, key) }

func (m *mockCache[V]) Len() int { return len(m.m) }
