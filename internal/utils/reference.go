package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewReference builds a correlation key for a logical ledger operation.
// Related entries (both sides of a transfer, a purchase and its refund)
// share one reference.
func NewReference(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s-%d-%s", strings.ToUpper(prefix), time.Now().Unix(), id)
}
