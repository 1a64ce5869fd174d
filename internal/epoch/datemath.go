package epoch

// FirstYear is the year of tick zero.
const FirstYear = 1970

// FirstWeekday is the weekday of 1970-01-01 (Thursday, 0=Sunday).
const FirstWeekday = 4

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsLeapYear determines if the year is a leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// DaysInMonth returns the number of days in a given month (1-12) for a specific year.
// It returns 0 for months outside 1-12.
func DaysInMonth(month, year int) int {
	if month < 1 || month > 12 {
		return 0
	}
	if month == 2 && IsLeapYear(year) {
		return 29
	}
	return monthDays[month-1]
}

// DaysBeforeMonth returns the number of days in the year before the first
// day of month (1-12).
func DaysBeforeMonth(month, year int) int {
	d := 0
	for m := 1; m < month && m <= 12; m++ {
		d += DaysInMonth(m, year)
	}
	return d
}
