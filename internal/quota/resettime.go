package quota

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const epochMillisThreshold = 1e12

// parseResetTime reads a reset instant written either as an ISO-8601 string or
// as an epoch (seconds, or milliseconds when larger than 1e12, possibly
// quoted). Empty, zero and unreadable values give nils.
func parseResetTime(raw json.RawMessage, now time.Time) (*time.Time, *float64) {
	if len(raw) == 0 {
		return nil, nil
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, nil
	}

	var at time.Time
	switch v := value.(type) {
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, nil
		}
		if strings.Contains(v, "T") {
			parsed, ok := parseISO(v, now.Location())
			if !ok {
				return nil, nil
			}
			at = parsed
			break
		}
		ts, err := strconv.ParseFloat(v, 64)
		if err != nil || ts == 0 {
			return nil, nil
		}
		at = fromEpoch(ts, now.Location())
	case float64:
		if v == 0 {
			return nil, nil
		}
		at = fromEpoch(v, now.Location())
	default:
		return nil, nil
	}

	hours := round1(at.Sub(now).Hours())
	return &at, &hours
}

func parseISO(value string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, true
	}
	// no zone designator, taken as local time
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", value, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func fromEpoch(ts float64, loc *time.Location) time.Time {
	if ts > epochMillisThreshold {
		ts = ts / 1000
	}
	return time.UnixMicro(int64(ts * 1e6)).In(loc)
}

func formatResetTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
