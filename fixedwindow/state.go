package fixedwindow

import (
	"strconv"
	"strings"
	"time"
)

// window is the persisted state of one fixed window.
type window struct {
	Count    int
	Start    time.Time
	Duration time.Duration
}

func (w window) expiredAt(now time.Time) bool {
	return now.Sub(w.Start) >= w.Duration
}

func (w window) resetAt() time.Time {
	return w.Start.Add(w.Duration)
}

// encodeWindow serializes a window into a compact ASCII format:
// v1|count|start_unix_nano|duration_nano
func encodeWindow(w window) string {
	var b strings.Builder
	b.Grow(3 + 20 + 1 + 20 + 1 + 20)
	b.WriteString("v1|")
	b.WriteString(strconv.Itoa(w.Count))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(w.Start.UnixNano(), 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(int64(w.Duration), 10))
	return b.String()
}

func hasV1Header(s string) bool {
	return len(s) >= 3 && s[0] == 'v' && s[1] == '1' && s[2] == '|'
}

// decodeWindow deserializes the compact format; ok=false on anything else.
func decodeWindow(s string) (window, bool) {
	if !hasV1Header(s) {
		return window{}, false
	}
	data := s[3:]

	pos1 := strings.IndexByte(data, '|')
	if pos1 < 0 {
		return window{}, false
	}
	count, err := strconv.Atoi(data[:pos1])
	if err != nil {
		return window{}, false
	}

	rest := data[pos1+1:]
	pos2 := strings.IndexByte(rest, '|')
	if pos2 < 0 {
		return window{}, false
	}
	startNS, err := strconv.ParseInt(rest[:pos2], 10, 64)
	if err != nil {
		return window{}, false
	}

	durNS, err := strconv.ParseInt(rest[pos2+1:], 10, 64)
	if err != nil {
		return window{}, false
	}

	return window{
		Count:    count,
		Start:    time.Unix(0, startNS),
		Duration: time.Duration(durNS),
	}, true
}
