// Package logging provides the process-wide shared.Logger implementation.
// The teacher's daemon logs via the standard library's log package
// throughout (no structured logging dependency appears anywhere in the
// retrieval pack), so this adapter does the same: one line per call,
// level-prefixed, metadata rendered inline.
package logging

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// StdLogger writes to the standard library logger.
type StdLogger struct {
	prefix string
}

func NewStdLogger(prefix string) *StdLogger {
	return &StdLogger{prefix: prefix}
}

func (l *StdLogger) Log(level, message string, metadata map[string]interface{}) {
	var b strings.Builder
	if l.prefix != "" {
		b.WriteString(l.prefix)
		b.WriteString(": ")
	}
	b.WriteString(strings.ToUpper(level))
	b.WriteString(": ")
	b.WriteString(message)

	if len(metadata) > 0 {
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, metadata[k])
		}
	}

	log.Println(b.String())
}

var _ shared.Logger = (*StdLogger)(nil)
