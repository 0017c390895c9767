package shared

import (
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimeParam 解析可选时间参数，空串返回 nil；不带时区的值按 loc 解释
func ParseTimeParam(raw string, loc *time.Location) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return &parsed, nil
	}
	for _, layout := range dateLayouts[1:] {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("invalid time value: %s", value)
}

// ParseRangeEndParam 同 ParseTimeParam，纯日期取当天 23:59:59.999
func ParseRangeEndParam(raw string, loc *time.Location) (*time.Time, error) {
	parsed, err := ParseTimeParam(raw, loc)
	if err != nil || parsed == nil {
		return parsed, err
	}
	if len(strings.TrimSpace(raw)) == len("2006-01-02") {
		end := parsed.AddDate(0, 0, 1).Add(-time.Millisecond)
		return &end, nil
	}
	return parsed, nil
}
