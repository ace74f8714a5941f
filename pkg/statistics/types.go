package statistics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DayLayout is the layout of calendar-day keys.
const DayLayout = "2006-01-02"

// Sample is one bucket of a recorder statistic. Energy counters carry Change,
// temperature sensors carry Mean.
type Sample struct {
	Start  time.Time `json:"start"`
	Mean   *float64  `json:"mean,omitempty"`
	Change *float64  `json:"change,omitempty"`
}

// Result maps statistic id to its samples in chronological order.
type Result map[string][]Sample

// Has reports whether id is present in the result.
func (r Result) Has(id string) bool {
	if id == "" {
		return false
	}
	_, ok := r[id]
	return ok
}

// DayKey returns the calendar day of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

// ParseDay returns local midnight of a day key.
func ParseDay(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DayLayout, key, loc)
}

// UnmarshalJSON accepts start either as an RFC3339 string or as epoch
// milliseconds, which is what newer recorder versions send.
func (s *Sample) UnmarshalJSON(b []byte) error {
	var raw struct {
		Start  json.RawMessage `json:"start"`
		Mean   *float64        `json:"mean"`
		Change *float64        `json:"change"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.Mean = raw.Mean
	s.Change = raw.Change
	s.Start = time.Time{}

	start := bytes.TrimSpace(raw.Start)
	if len(start) == 0 || bytes.Equal(start, []byte("null")) {
		return nil
	}
	if start[0] == '"' {
		var str string
		if err := json.Unmarshal(start, &str); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			// unparsable timestamps are skipped by the aggregator
			return nil
		}
		s.Start = t
		return nil
	}
	ms, err := strconv.ParseFloat(string(start), 64)
	if err != nil {
		return fmt.Errorf("error decoding sample start %s: %w", start, err)
	}
	s.Start = time.UnixMilli(int64(ms))
	return nil
}

func Float(f float64) *float64 {
	return &f
}
