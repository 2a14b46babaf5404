package export

import (
	"strings"
	"time"
)

// Filename derives worksheet_<topic>_<date>.<ext>. Every rune outside
// [A-Za-z0-9] becomes an underscore. An override is used as given, with ext
// appended when it is missing.
func Filename(topic, override string, f Format, now time.Time) string {
	ext := "." + f.Ext()
	if o := strings.TrimSpace(override); o != "" {
		if strings.HasSuffix(strings.ToLower(o), ext) {
			return o
		}
		return o + ext
	}
	return "worksheet_" + SanitizeTopic(topic) + "_" + now.Format("2006-01-02") + ext
}

func SanitizeTopic(topic string) string {
	var b strings.Builder
	for _, r := range topic {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
