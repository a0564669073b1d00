package temporal

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidSpec      = errors.New("invalid calendar spec")
	ErrInvalidDate      = errors.New("invalid date")
	ErrDateRange        = errors.New("date out of calendar range")
	ErrCalendarMismatch = errors.New("calendar mismatch")
)

// Ratio converts simulation steps to calendar days. It is reduced to lowest
// terms at validation time, so {2, 4} and {1, 2} describe the same calendar.
type Ratio struct {
	Steps int
	Days  int
}

// Spec describes a calendar before it is instantiated. DaysPerMonth is the
// month table for one year; UniformMonths builds the common uniform case.
type Spec struct {
	DaysPerWeek  int
	DaysPerMonth []int
	StartYear    int
	StartMonth   int
	StartDay     int
	MaxYear      int
	StepsToDays  Ratio
}

func UniformMonths(months, days int) []int {
	table := make([]int, months)
	for i := range table {
		table[i] = days
	}
	return table
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Clock reports how many steps the simulation has advanced. The model owns
// the counter; the calendar only reads it.
type Clock interface {
	Steps() int
}

// Calendar is created once per simulation and bound to its clock. Dates and
// durations carry the *Calendar that minted them; values from different
// calendars never interoperate.
type Calendar struct {
	spec        Spec
	clock       Clock
	log         *logrus.Logger
	daysPerYear int
	daysBefore  []int
}

func NewCalendar(spec Spec, clock Clock, log *logrus.Logger) (*Calendar, error) {
	if clock == nil {
		return nil, fmt.Errorf("%w: clock must not be nil", ErrInvalidSpec)
	}
	if spec.DaysPerWeek <= 0 {
		return nil, fmt.Errorf("%w: days per week %d must be positive", ErrInvalidSpec, spec.DaysPerWeek)
	}
	if len(spec.DaysPerMonth) == 0 {
		return nil, fmt.Errorf("%w: month table must not be empty", ErrInvalidSpec)
	}
	for i, days := range spec.DaysPerMonth {
		if days <= 0 {
			return nil, fmt.Errorf("%w: month %d has %d days", ErrInvalidSpec, i+1, days)
		}
	}
	if spec.MaxYear < spec.StartYear {
		return nil, fmt.Errorf("%w: max year %d precedes start year %d", ErrInvalidSpec, spec.MaxYear, spec.StartYear)
	}
	if spec.StepsToDays.Steps <= 0 || spec.StepsToDays.Days <= 0 {
		return nil, fmt.Errorf("%w: steps to days ratio %d:%d must be positive",
			ErrInvalidSpec, spec.StepsToDays.Steps, spec.StepsToDays.Days)
	}
	d := gcd(spec.StepsToDays.Steps, spec.StepsToDays.Days)
	spec.StepsToDays.Steps /= d
	spec.StepsToDays.Days /= d

	months := make([]int, len(spec.DaysPerMonth))
	copy(months, spec.DaysPerMonth)
	spec.DaysPerMonth = months

	daysPerYear := 0
	daysBefore := make([]int, len(months)+1)
	for i, days := range months {
		daysBefore[i+1] = daysBefore[i] + days
		daysPerYear += days
	}

	if log == nil {
		log = logrus.New()
	}
	cal := &Calendar{
		spec:        spec,
		clock:       clock,
		log:         log,
		daysPerYear: daysPerYear,
		daysBefore:  daysBefore,
	}
	if _, err := cal.NewDate(spec.StartYear, spec.StartMonth, spec.StartDay); err != nil {
		return nil, fmt.Errorf("%w: start date %d-%d-%d not on the calendar",
			ErrInvalidSpec, spec.StartYear, spec.StartMonth, spec.StartDay)
	}
	log.WithFields(logrus.Fields{
		"months":        len(months),
		"days_per_year": daysPerYear,
		"steps_to_days": fmt.Sprintf("%d:%d", spec.StepsToDays.Steps, spec.StepsToDays.Days),
	}).Debug("calendar created")
	return cal, nil
}

func (c *Calendar) DaysPerWeek() int  { return c.spec.DaysPerWeek }
func (c *Calendar) DaysPerYear() int  { return c.daysPerYear }
func (c *Calendar) MonthsPerYear() int { return len(c.spec.DaysPerMonth) }
func (c *Calendar) MaxYear() int      { return c.spec.MaxYear }

// DaysPerMonth returns the length of the given month, 1-based.
func (c *Calendar) DaysPerMonth(month int) (int, error) {
	if month < 1 || month > len(c.spec.DaysPerMonth) {
		return 0, fmt.Errorf("%w: month %d", ErrInvalidDate, month)
	}
	return c.spec.DaysPerMonth[month-1], nil
}

func (c *Calendar) NewDate(year, month, day int) (Date, error) {
	if year < c.spec.StartYear || year > c.spec.MaxYear {
		return Date{}, fmt.Errorf("%w: year %d outside [%d, %d]",
			ErrDateRange, year, c.spec.StartYear, c.spec.MaxYear)
	}
	daysInMonth, err := c.DaysPerMonth(month)
	if err != nil {
		return Date{}, err
	}
	if day < 1 || day > daysInMonth {
		return Date{}, fmt.Errorf("%w: day %d outside month %d of %d days",
			ErrInvalidDate, day, month, daysInMonth)
	}
	return Date{year: year, month: month, day: day, cal: c}, nil
}

func (c *Calendar) StartDate() Date {
	d, _ := c.NewDate(c.spec.StartYear, c.spec.StartMonth, c.spec.StartDay)
	return d
}

// Today derives the current date from the clock: the start date advanced by
// the day-equivalent of the steps taken so far.
func (c *Calendar) Today() Date {
	today, err := c.StartDate().Add(c.DurationFromSteps(c.clock.Steps()))
	if err != nil {
		c.log.WithField("steps", c.clock.Steps()).Warn("clock ran past the calendar's final year")
		last, _ := c.FromDays(c.maxOrdinal())
		return last
	}
	return today
}

func (c *Calendar) NewDuration(days int) Duration {
	return Duration{days: days, cal: c}
}

// DurationFromSteps converts whole steps to whole days using the reduced
// steps:days ratio. Partial days truncate.
func (c *Calendar) DurationFromSteps(steps int) Duration {
	return Duration{days: steps * c.spec.StepsToDays.Days / c.spec.StepsToDays.Steps, cal: c}
}

// StepsPerDuration is the inverse conversion, truncating partial steps.
func (c *Calendar) StepsPerDuration(d Duration) int {
	return d.days * c.spec.StepsToDays.Steps / c.spec.StepsToDays.Days
}

func (c *Calendar) maxOrdinal() int {
	return (c.spec.MaxYear - c.spec.StartYear + 1) * c.daysPerYear
}

// FromDays maps an ordinal back to a date. Day 1 is the first day of the
// start year.
func (c *Calendar) FromDays(n int) (Date, error) {
	if n < 1 || n > c.maxOrdinal() {
		return Date{}, fmt.Errorf("%w: day %d outside [1, %d]", ErrDateRange, n, c.maxOrdinal())
	}
	year := c.spec.StartYear + (n-1)/c.daysPerYear
	rem := (n - 1) % c.daysPerYear
	month := 1
	for rem >= c.daysBefore[month] {
		month++
	}
	day := rem - c.daysBefore[month-1] + 1
	return Date{year: year, month: month, day: day, cal: c}, nil
}
