package order

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewNumber generates an order number: a monotonic nanosecond component plus
// a random suffix. Uniqueness is still enforced by the database; a collision
// is surfaced as a retryable conflict, never silently ignored.
func NewNumber() string {
	var suffix [3]byte
	_, _ = rand.Read(suffix[:])
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixNano(), hex.EncodeToString(suffix[:]))
}
