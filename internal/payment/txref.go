package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewTxRef returns "<prefix>-<unix millis>-<9 lowercase alphanumerics>".
func NewTxRef(prefix string) string {
	return newTxRef(prefix, time.Now())
}

func newTxRef(prefix string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s-%d-%s", prefix, now.UnixMilli(), suffix)
}
