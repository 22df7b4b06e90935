package grid

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vanderheijden86/treegrid/pkg/model"
)

// dateLayouts are tried, in order, when a date column holds a string.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"1/2/2006",
}

// datePattern maps grid date tokens onto Go layout tokens. Longer tokens come
// first so "yyyy" wins over "yy".
var datePattern = strings.NewReplacer(
	"yyyy", "2006",
	"yy", "06",
	"MMMM", "January",
	"MMM", "Jan",
	"MM", "01",
	"M", "1",
	"dd", "02",
	"d", "2",
	"HH", "15",
	"hh", "03",
	"h", "3",
	"mm", "04",
	"ss", "05",
	"tt", "PM",
)

// FormatValue renders a cell value using the column's format string:
//
//	n0, n2   fixed decimals for numbers
//	M/d/yyyy date pattern for times and ISO date strings
//
// Booleans render as a check mark for true and nothing for false.
func FormatValue(col model.ColumnConfig, v any) string {
	if v == nil {
		return ""
	}
	if b, ok := v.(bool); ok {
		if b {
			return "✓"
		}
		return ""
	}

	format := strings.TrimSpace(col.Format)
	if strings.HasPrefix(format, "{0:") && strings.HasSuffix(format, "}") {
		format = format[3 : len(format)-1]
	}

	if f, ok := toFloat(v); ok {
		if digits, ok := numericDigits(format); ok {
			return strconv.FormatFloat(f, 'f', digits, 64)
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	if col.Editor == model.KindDate || col.Filter == model.KindDate || isDatePattern(format) {
		if t, ok := toTime(v); ok {
			if format == "" {
				return t.Format("2006-01-02")
			}
			return t.Format(datePattern.Replace(format))
		}
	}

	return toString(v)
}

func numericDigits(format string) (int, bool) {
	if len(format) < 2 || (format[0] != 'n' && format[0] != 'N') {
		return 0, false
	}
	digits, err := strconv.Atoi(format[1:])
	if err != nil || digits < 0 {
		return 0, false
	}
	return digits, true
}

func isDatePattern(format string) bool {
	return strings.Contains(format, "yy") || strings.Contains(format, "dd")
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case time.Time:
		return s.Format(time.RFC3339)
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}
