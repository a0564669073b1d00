package temporal

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

type stubClock struct {
	steps int
}

func (c *stubClock) Steps() int { return c.steps }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testSpec() Spec {
	return Spec{
		DaysPerWeek:  5,
		DaysPerMonth: UniformMonths(10, 30),
		StartYear:    1,
		StartMonth:   1,
		StartDay:     1,
		MaxYear:      100,
		StepsToDays:  Ratio{Steps: 1, Days: 1},
	}
}

func testCalendar(t *testing.T, clock Clock) *Calendar {
	t.Helper()
	cal, err := NewCalendar(testSpec(), clock, quietLogger())
	if err != nil {
		t.Fatalf("NewCalendar returned error: %v", err)
	}
	return cal
}

func TestSpecValidation(t *testing.T) {
	clock := &stubClock{}
	cases := []func(*Spec){
		func(s *Spec) { s.DaysPerWeek = 0 },
		func(s *Spec) { s.DaysPerMonth = nil },
		func(s *Spec) { s.DaysPerMonth = []int{30, 0, 30} },
		func(s *Spec) { s.MaxYear = 0 },
		func(s *Spec) { s.StepsToDays = Ratio{Steps: 0, Days: 1} },
		func(s *Spec) { s.StepsToDays = Ratio{Steps: 1, Days: -2} },
		func(s *Spec) { s.StartDay = 31 },
	}
	for i, mutate := range cases {
		spec := testSpec()
		mutate(&spec)
		if _, err := NewCalendar(spec, clock, quietLogger()); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if _, err := NewCalendar(testSpec(), nil, quietLogger()); !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec for nil clock, got %v", err)
	}
}

func TestRatioReduction(t *testing.T) {
	spec := testSpec()
	spec.StepsToDays = Ratio{Steps: 4, Days: 6}
	cal, err := NewCalendar(spec, &stubClock{}, quietLogger())
	if err != nil {
		t.Fatalf("NewCalendar returned error: %v", err)
	}
	if got := cal.DurationFromSteps(2).Days(); got != 3 {
		t.Fatalf("4:6 should reduce to 2:3; 2 steps = %d days, want 3", got)
	}
	if got := cal.StepsPerDuration(cal.NewDuration(3)); got != 2 {
		t.Fatalf("3 days should be 2 steps, got %d", got)
	}
}

func TestTodayFollowsClock(t *testing.T) {
	clock := &stubClock{}
	cal := testCalendar(t, clock)
	if !cal.Today().Equal(cal.StartDate()) {
		t.Fatalf("step 0 should be the start date, got %s", cal.Today())
	}
	clock.steps = 35
	today := cal.Today()
	if today.Year() != 1 || today.Month() != 2 || today.Day() != 6 {
		t.Fatalf("expected 1-2-6 after 35 steps, got %s", today)
	}
}

func TestRoundTrip(t *testing.T) {
	cal := testCalendar(t, &stubClock{})
	for n := 1; n <= 2*cal.DaysPerYear(); n++ {
		date, err := cal.FromDays(n)
		if err != nil {
			t.Fatalf("FromDays(%d) returned error: %v", n, err)
		}
		if got := date.ToDays(); got != n {
			t.Fatalf("round trip failed: FromDays(%d).ToDays() = %d", n, got)
		}
	}
}

func TestDateRange(t *testing.T) {
	cal := testCalendar(t, &stubClock{})
	if _, err := cal.FromDays(0); !errors.Is(err, ErrDateRange) {
		t.Fatalf("expected ErrDateRange for day 0, got %v", err)
	}
	last := 100 * cal.DaysPerYear()
	if _, err := cal.FromDays(last); err != nil {
		t.Fatalf("last calendar day should be valid: %v", err)
	}
	if _, err := cal.FromDays(last + 1); !errors.Is(err, ErrDateRange) {
		t.Fatalf("expected ErrDateRange past the final year, got %v", err)
	}
	if _, err := cal.NewDate(101, 1, 1); !errors.Is(err, ErrDateRange) {
		t.Fatalf("expected ErrDateRange for year past max, got %v", err)
	}
}

func TestDateArithmetic(t *testing.T) {
	cal := testCalendar(t, &stubClock{})
	d, err := cal.NewDate(1, 10, 25)
	if err != nil {
		t.Fatalf("NewDate returned error: %v", err)
	}
	next, err := d.AddDays(10)
	if err != nil {
		t.Fatalf("AddDays returned error: %v", err)
	}
	if next.Year() != 2 || next.Month() != 1 || next.Day() != 5 {
		t.Fatalf("expected year wrap to 2-1-5, got %s", next)
	}
	dist, err := next.Sub(d)
	if err != nil {
		t.Fatalf("Sub returned error: %v", err)
	}
	if dist.Days() != 10 {
		t.Fatalf("expected distance 10, got %d", dist.Days())
	}
	if !d.Before(next) || !next.After(d) {
		t.Fatalf("ordering predicates disagree with arithmetic")
	}
}

func TestCrossCalendarMismatch(t *testing.T) {
	first := testCalendar(t, &stubClock{})
	second := testCalendar(t, &stubClock{})
	a := first.StartDate()
	b := second.StartDate()
	if _, err := a.Sub(b); !errors.Is(err, ErrCalendarMismatch) {
		t.Fatalf("expected ErrCalendarMismatch, got %v", err)
	}
	if _, err := a.Add(second.NewDuration(1)); !errors.Is(err, ErrCalendarMismatch) {
		t.Fatalf("expected ErrCalendarMismatch, got %v", err)
	}
	if a.Equal(b) || a.Before(b) || a.After(b) {
		t.Fatalf("cross-calendar comparisons must be false")
	}
}

func TestReplace(t *testing.T) {
	cal := testCalendar(t, &stubClock{})
	d, err := cal.NewDate(3, 4, 5)
	if err != nil {
		t.Fatalf("NewDate returned error: %v", err)
	}
	r, err := d.Replace(0, 7, 0)
	if err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}
	if r.Year() != 3 || r.Month() != 7 || r.Day() != 5 {
		t.Fatalf("expected 3-7-5, got %s", r)
	}
	if _, err := d.Replace(0, 11, 0); err == nil {
		t.Fatalf("expected error for month past table")
	}
}
