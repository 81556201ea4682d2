package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateSubmissionNumber returns an externally visible reference like
// PS-2026-3F9A1C7B. The random tail keeps numbers unguessable without a
// counter table.
func GenerateSubmissionNumber() string {
	tail := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("PS-%d-%s", time.Now().Year(), tail)
}
