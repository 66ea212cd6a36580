package order

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNumber_Format(t *testing.T) {
	n := NewNumber()
	assert.True(t, strings.HasPrefix(n, "ORD-"), "got %s", n)
	assert.Len(t, strings.Split(n, "-"), 3)
}

func TestNewNumber_Distinct(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		seen[NewNumber()] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}
