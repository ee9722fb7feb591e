package epoch

// julianDay returns the Julian day number for a calendar date. The formula
// stays mathematically consistent for out-of-range components (month 13,
// day 32, hour 25), which deliberately compute an absolute date instead of
// failing; callers rely on that when normalizing loose component lists.
func julianDay(y, m, d int) int {
	a1 := 7 * (y + (m+9)/12) / 4
	a2 := 3 * ((y+(m-9)/7)/100 + 1) / 4
	a3 := 275 * m / 9
	return 367*y - a1 - a2 + a3 + d + 1721029
}

// julianDay0AD is the Julian day number of 0000-01-01, the origin of
// CDF_EPOCH and CDF_EPOCH16.
const julianDay0AD = 1721060

// julianDayJ2000 is the Julian day number of 2000-01-01, whose noon is the
// origin of CDF_TIME_TT2000.
const julianDayJ2000 = 2451545

// calendarFromJulian inverts julianDay for any Gregorian-calendar day
// number (Fliegel & Van Flandern).
func calendarFromJulian(jd int) (y, m, d int) {
	l := jd + 68569
	n := 4 * l / 146097
	l = l - (146097*n+3)/4
	i := 4000 * (l + 1) / 1461001
	l = l - 1461*i/4 + 31
	j := 80 * l / 2447
	d = l - 2447*j/80
	l = j / 11
	m = j + 2 - 12*l
	y = 100*(n-49) + i + l
	return
}

// floorDiv divides with the quotient rounded toward negative infinity, so
// pre-1970 instants fall on the correct day.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
