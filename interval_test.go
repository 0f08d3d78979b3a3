package instancechart

import (
	"testing"
	"time"
)

func TestInterval_PeriodAtStart(t *testing.T) {
	now := time.Now()
	iv := newInterval(10*time.Millisecond, 10*time.Second, 60*time.Second, now)
	if got := iv.period(0); got != iv.Min {
		t.Errorf("period(0) = %v, want Min %v", got, iv.Min)
	}
}

func TestInterval_PeriodAfterRampdown(t *testing.T) {
	now := time.Now()
	iv := newInterval(10*time.Millisecond, 10*time.Second, 60*time.Second, now)
	if got := iv.period(120 * time.Second); got != iv.Max {
		t.Errorf("period(120s) = %v, want Max %v", got, iv.Max)
	}
}

func TestInterval_PeriodHalfway(t *testing.T) {
	now := time.Now()
	iv := newInterval(0, 10*time.Second, 60*time.Second, now)
	got := iv.period(30 * time.Second)
	want := 5 * time.Second
	if got != want {
		t.Errorf("period(30s) = %v, want %v", got, want)
	}
}

func TestInterval_ZeroRampdownUsesMax(t *testing.T) {
	now := time.Now()
	iv := newInterval(10*time.Millisecond, 10*time.Second, 0, now)
	if got := iv.period(0); got != iv.Max {
		t.Errorf("period(0) with zero rampdown = %v, want Max %v", got, iv.Max)
	}
}

func TestInterval_NextIsMonotonic(t *testing.T) {
	now := time.Now()
	iv := newInterval(10*time.Millisecond, 10*time.Second, 60*time.Second, now)
	first := iv.Next(now)
	second := iv.Next(now.Add(30 * time.Second))
	if !second.After(first) {
		t.Errorf("second next %v should be after first %v", second, first)
	}
}

func TestInterval_UntilNegativeWhenOverdue(t *testing.T) {
	now := time.Now()
	iv := newInterval(10*time.Millisecond, 10*time.Second, 60*time.Second, now)
	iv.next = now.Add(-time.Second)
	if d := iv.Until(now); d >= 0 {
		t.Errorf("Until = %v, want negative", d)
	}
}
