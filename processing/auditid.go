package processing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewAuditID returns AUD-{tripID}-{yyyymmdd}-{8 hex chars}. The random suffix
// makes the ID unique per trip per run.
func NewAuditID(tripID string, at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("AUD-%s-%s-%s", tripID, at.UTC().Format("20060102"), strings.ToUpper(suffix))
}
