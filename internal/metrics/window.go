package metrics

import (
	"errors"
	"fmt"
	"time"
)

// TimeLayout is the accepted layout for explicit window bounds (UTC)
const TimeLayout = "2006-01-02 15:04:05"

// ErrInvalidWindow is returned for a window the metrics API cannot serve
var ErrInvalidWindow = errors.New("invalid metric window")

// WindowRequest selects a utilization window. Explicit bounds take
// precedence over DaysBack when both are set.
type WindowRequest struct {
	Start    time.Time
	End      time.Time
	DaysBack int
	// Period in seconds; zero derives it from the span
	Period int64
}

// Window is a resolved [Start, End] query range sampled at Period seconds
type Window struct {
	Start  time.Time
	End    time.Time
	Period int64
}

// Explicit reports whether the request carries start/end bounds
func (r WindowRequest) Explicit() bool {
	return !r.Start.IsZero() || !r.End.IsZero()
}

// Resolve turns a request into a window. A relative window ends one hour
// before the most recent top of the hour so that only finalized datapoints
// are queried.
func Resolve(req WindowRequest, now time.Time) (Window, error) {
	var w Window

	if req.Explicit() {
		if req.Start.IsZero() || req.End.IsZero() {
			return Window{}, fmt.Errorf("%w: both start and end time are required", ErrInvalidWindow)
		}
		w.Start, w.End = req.Start.UTC(), req.End.UTC()
	} else {
		if req.DaysBack <= 0 {
			return Window{}, fmt.Errorf("%w: days back must be positive, got %d", ErrInvalidWindow, req.DaysBack)
		}
		w.End = now.UTC().Truncate(time.Hour).Add(-time.Hour)
		w.Start = w.End.AddDate(0, 0, -req.DaysBack)
	}

	if !w.Start.Before(w.End) {
		return Window{}, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidWindow,
			w.Start.Format(TimeLayout), w.End.Format(TimeLayout))
	}

	w.Period = req.Period
	if w.Period == 0 {
		w.Period = SpanPeriod(w.Start, w.End)
	}
	if w.Period < 60 || w.Period%60 != 0 {
		return Window{}, fmt.Errorf("%w: period %ds must be a positive multiple of 60", ErrInvalidWindow, w.Period)
	}

	return w, nil
}

// SpanPeriod returns the span between start and end in seconds, rounded
// down to a whole minute
func SpanPeriod(start, end time.Time) int64 {
	seconds := int64(end.Sub(start) / time.Second)
	return seconds / 60 * 60
}

// ParseTime accepts TimeLayout or RFC3339. Times without a zone are UTC.
func ParseTime(value string) (time.Time, error) {
	if t, err := time.ParseInLocation(TimeLayout, value, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cannot parse %q, expected %q or RFC3339", ErrInvalidWindow, value, TimeLayout)
	}
	return t.UTC(), nil
}

func (w Window) String() string {
	return fmt.Sprintf("%s to %s every %ds", w.Start.Format(TimeLayout), w.End.Format(TimeLayout), w.Period)
}
