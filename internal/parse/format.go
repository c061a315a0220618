package parse

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
)

// FormatKB renders a size given in KiB, e.g. 2097152 -> "2.0 GiB".
func FormatKB(kb int64) string {
	if kb <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(kb) * 1024)
}

// atoiDefault parses the leading integer of s (after trimming), returning def
// when there is none. "85%" and "1,234" are accepted.
func atoiDefault(s string, def int) int {
	v, ok := leadingInt(s)
	if !ok {
		return def
	}
	return int(v)
}

func leadingInt(s string) (int64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	end := 0
	for end < len(s) && (unicode.IsDigit(rune(s[end])) || (end == 0 && (s[end] == '-' || s[end] == '+'))) {
		end++
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// floatDefault parses a float that may use a decimal comma.
func floatDefault(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	s = strings.TrimRight(s, "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// sizeKB parses a df column. Plain numbers are KiB; values with a unit
// suffix ("5.2G", "512M") are converted using binary multiples.
func sizeKB(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	last := s[len(s)-1]
	if unicode.IsLetter(rune(last)) {
		unit := strings.ToUpper(string(last))
		if unit == "B" {
			b, err := humanize.ParseBytes(s)
			if err != nil {
				return 0, false
			}
			return int64(b / 1024), true
		}
		b, err := humanize.ParseBytes(strings.Replace(s[:len(s)-1], ",", ".", 1) + unit + "iB")
		if err != nil {
			return 0, false
		}
		return int64(b / 1024), true
	}
	return 0, false
}
