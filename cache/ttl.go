package cache

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// DefaultTTL is how long a read result stays cached unless the caller asks otherwise.
const DefaultTTL = 3600 * time.Second

var ErrInvalidTTL = errors.New("invalid ttl")

// ParseTTL converts a TTL value to a duration. Integers and floats count seconds,
// strings are parsed as durations ("90s", "1h") or as a number of seconds.
func ParseTTL(v interface{}) (time.Duration, error) {
	var d time.Duration
	switch t := v.(type) {
	case time.Duration:
		d = t
	case int:
		d = time.Duration(t) * time.Second
	case int32:
		d = time.Duration(t) * time.Second
	case int64:
		d = time.Duration(t) * time.Second
	case uint:
		d = time.Duration(t) * time.Second
	case uint32:
		d = time.Duration(t) * time.Second
	case uint64:
		d = time.Duration(t) * time.Second
	case float32:
		return secondsToDuration(float64(t))
	case float64:
		return secondsToDuration(t)
	case string:
		if parsed, err := time.ParseDuration(t); err == nil {
			d = parsed
			break
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTTL, t)
		}
		return secondsToDuration(f)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidTTL, v)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: negative duration %s", ErrInvalidTTL, d)
	}
	return d, nil
}

func secondsToDuration(s float64) (time.Duration, error) {
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
		return 0, fmt.Errorf("%w: %v seconds", ErrInvalidTTL, s)
	}
	return time.Duration(s * float64(time.Second)), nil
}
