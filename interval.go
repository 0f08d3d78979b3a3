package instancechart

import "time"

// Interval implements the broadcaster's ramping schedule: announcements
// start at Min apart and slow down linearly to Max over Rampdown, so a
// freshly started instance floods the network briefly while peers are
// still finding it, then settles into a steady low-chatter cadence.
type Interval struct {
	Min      time.Duration
	Max      time.Duration
	Rampdown time.Duration

	start time.Time
	next  time.Time
}

// DefaultMinInterval, DefaultMaxInterval and DefaultRampdown are the chart
// defaults used when a Builder does not override them.
const (
	DefaultMinInterval = 10 * time.Millisecond
	DefaultMaxInterval = 10 * time.Second
	DefaultRampdown    = 60 * time.Second
)

// newInterval creates an Interval with its clock anchored at now and the
// first broadcast scheduled immediately.
func newInterval(min, max, rampdown time.Duration, now time.Time) *Interval {
	iv := &Interval{Min: min, Max: max, Rampdown: rampdown, start: now}
	iv.next = now
	return iv
}

// period returns the scheduled spacing between broadcasts at elapsed time t
// since the interval started ramping down: linear from Min at t=0 to Max at
// t>=Rampdown.
func (iv *Interval) period(elapsed time.Duration) time.Duration {
	if iv.Rampdown <= 0 {
		return iv.Max
	}
	frac := float64(elapsed) / float64(iv.Rampdown)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	span := iv.Max - iv.Min
	return iv.Min + time.Duration(float64(span)*frac)
}

// Next advances the schedule and returns the instant the next broadcast is
// due, assuming the caller is broadcasting now at instant now.
func (iv *Interval) Next(now time.Time) time.Time {
	p := iv.period(now.Sub(iv.start))
	iv.next = now.Add(p)
	return iv.next
}

// Until returns how long until the next scheduled broadcast, relative to
// now. Negative if the schedule is already overdue.
func (iv *Interval) Until(now time.Time) time.Duration {
	return iv.next.Sub(now)
}

// SleepTillNext blocks the calling goroutine until the next scheduled
// broadcast, or returns immediately if it is already due.
func (iv *Interval) SleepTillNext(now time.Time) {
	if d := iv.Until(now); d > 0 {
		time.Sleep(d)
	}
}
