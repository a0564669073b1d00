package temporal

import "fmt"

// Date is a day on one specific calendar. The zero value is not a valid
// date; use Calendar.NewDate or Calendar.FromDays.
type Date struct {
	year  int
	month int
	day   int
	cal   *Calendar
}

func (d Date) Year() int           { return d.year }
func (d Date) Month() int          { return d.month }
func (d Date) Day() int            { return d.day }
func (d Date) Calendar() *Calendar { return d.cal }

// ToDays is the ordinal of the date: day 1 is the first day of the start
// year, so FromDays(d.ToDays()) == d for every valid date.
func (d Date) ToDays() int {
	return d.day + d.cal.daysBefore[d.month-1] + (d.year-d.cal.spec.StartYear)*d.cal.daysPerYear
}

func (d Date) sameCalendar(cal *Calendar) error {
	if d.cal == nil || d.cal != cal {
		return ErrCalendarMismatch
	}
	return nil
}

func (d Date) Add(dur Duration) (Date, error) {
	if err := d.sameCalendar(dur.cal); err != nil {
		return Date{}, err
	}
	return d.cal.FromDays(d.ToDays() + dur.days)
}

func (d Date) AddDays(days int) (Date, error) {
	return d.Add(d.cal.NewDuration(days))
}

// Sub is the signed distance from other to d.
func (d Date) Sub(other Date) (Duration, error) {
	if err := d.sameCalendar(other.cal); err != nil {
		return Duration{}, err
	}
	return Duration{days: d.ToDays() - other.ToDays(), cal: d.cal}, nil
}

func (d Date) Equal(other Date) bool {
	return d.cal != nil && d.cal == other.cal &&
		d.year == other.year && d.month == other.month && d.day == other.day
}

func (d Date) Before(other Date) bool {
	return d.cal != nil && d.cal == other.cal && d.ToDays() < other.ToDays()
}

func (d Date) After(other Date) bool {
	return d.cal != nil && d.cal == other.cal && d.ToDays() > other.ToDays()
}

// Replace returns the date with the given fields swapped in; zero keeps the
// existing value.
func (d Date) Replace(year, month, day int) (Date, error) {
	if year == 0 {
		year = d.year
	}
	if month == 0 {
		month = d.month
	}
	if day == 0 {
		day = d.day
	}
	return d.cal.NewDate(year, month, day)
}

func (d Date) String() string {
	return fmt.Sprintf("%d-%d-%d", d.year, d.month, d.day)
}

// Duration is a whole number of days on one specific calendar.
type Duration struct {
	days int
	cal  *Calendar
}

func (d Duration) Days() int           { return d.days }
func (d Duration) Calendar() *Calendar { return d.cal }

// Weeks is the number of whole calendar weeks the duration spans.
func (d Duration) Weeks() int {
	if d.cal == nil {
		return 0
	}
	return d.days / d.cal.spec.DaysPerWeek
}

func (d Duration) Add(other Duration) (Duration, error) {
	if d.cal == nil || d.cal != other.cal {
		return Duration{}, ErrCalendarMismatch
	}
	return Duration{days: d.days + other.days, cal: d.cal}, nil
}

func (d Duration) Sub(other Duration) (Duration, error) {
	if d.cal == nil || d.cal != other.cal {
		return Duration{}, ErrCalendarMismatch
	}
	return Duration{days: d.days - other.days, cal: d.cal}, nil
}

func (d Duration) Neg() Duration {
	return Duration{days: -d.days, cal: d.cal}
}

func (d Duration) IsZero() bool     { return d.days == 0 }
func (d Duration) IsPositive() bool { return d.days > 0 }
func (d Duration) IsNegative() bool { return d.days < 0 }

func (d Duration) String() string {
	if d.days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", d.days)
}
