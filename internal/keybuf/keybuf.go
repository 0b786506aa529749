// Package keybuf assembles storage keys from colon-separated segments
// using pooled builders, keeping the per-request hot path allocation-light.
package keybuf

import (
	"strings"
	"sync"
)

var pool = sync.Pool{
	New: func() any {
		return &strings.Builder{}
	},
}

// Join concatenates segments with ':' separators.
func Join(segments ...string) string {
	sb := pool.Get().(*strings.Builder)
	sb.Reset()
	sb.Grow(64)

	for i, seg := range segments {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(seg)
	}

	out := sb.String()
	pool.Put(sb)
	return out
}
