package service

import (
	"fmt"
	"time"

	"campus-eats/config"
)

type peakWindow struct {
	name       string
	start, end int // minutes after midnight, end exclusive
}

func (w peakWindow) contains(minute int) bool {
	if w.start <= w.end {
		return minute >= w.start && minute < w.end
	}
	// window crosses midnight
	return minute >= w.start || minute < w.end
}

// Cadence picks the delay before the next automatic poll.
type Cadence struct {
	windows        []peakWindow
	peak           time.Duration
	quiet          time.Duration
	normal         time.Duration
	quietThreshold int
	location       *time.Location
}

func NewCadence(cfg config.PollingConfig) (*Cadence, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.TimeLocation()
	if err != nil {
		return nil, fmt.Errorf("invalid polling location: %w", err)
	}

	windows := make([]peakWindow, 0, len(cfg.PeakWindows))
	for _, w := range cfg.PeakWindows {
		start, err := parseClock(w.Start)
		if err != nil {
			return nil, fmt.Errorf("peak window %q: %w", w.Name, err)
		}
		end, err := parseClock(w.End)
		if err != nil {
			return nil, fmt.Errorf("peak window %q: %w", w.Name, err)
		}
		windows = append(windows, peakWindow{name: w.Name, start: start, end: end})
	}

	return &Cadence{
		windows:        windows,
		peak:           cfg.PeakInterval,
		quiet:          cfg.QuietInterval,
		normal:         cfg.Interval,
		quietThreshold: cfg.QuietThreshold,
		location:       loc,
	}, nil
}

// Interval is evaluated before every schedule: peak hours poll fastest, a board
// with few orders polls slowest.
func (c *Cadence) Interval(now time.Time, orderCount int) time.Duration {
	if _, ok := c.PeakWindow(now); ok {
		return c.peak
	}
	if orderCount <= c.quietThreshold {
		return c.quiet
	}
	return c.normal
}

func (c *Cadence) PeakWindow(now time.Time) (string, bool) {
	local := now.In(c.location)
	minute := local.Hour()*60 + local.Minute()
	for _, w := range c.windows {
		if w.contains(minute) {
			return w.name, true
		}
	}
	return "", false
}

func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", value)
	}
	return t.Hour()*60 + t.Minute(), nil
}
