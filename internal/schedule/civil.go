package schedule

import "time"

// Instants throughout the package are Unix milliseconds. Day identifiers
// count civil days from 1970-01-01 (dayID 0), negative before the epoch.
// YearMonthDay keys pack a civil date as year*10000 + month*100 + day.

// Valid civil date range. Keys resolving outside this range are treated as
// not found by every lookup, never as an error.
const (
	minYearMonthDay int32 = 10102    // 0001-01-02
	maxYearMonthDay int32 = 99991230 // 9999-12-30
)

var (
	minDayID = dayIDFromCivil(1, time.January, 2)
	maxDayID = dayIDFromCivil(9999, time.December, 30)
)

// dayIDFromCivil converts a proleptic Gregorian date to a day identifier.
func dayIDFromCivil(year int, month time.Month, day int) int32 {
	y := int64(year)
	m := int64(month)
	d := int64(day)
	if m <= 2 {
		y--
	}
	era := y / 400
	if y < 0 && y%400 != 0 {
		era--
	}
	yoe := y - era*400
	var mp int64
	if m > 2 {
		mp = m - 3
	} else {
		mp = m + 9
	}
	doy := (153*mp+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return int32(era*146097 + doe - 719468)
}

// civilFromDayID converts a day identifier back to a civil date.
func civilFromDayID(id int32) (year int, month time.Month, day int) {
	z := int64(id) + 719468
	era := z / 146097
	if z < 0 && z%146097 != 0 {
		era--
	}
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	var m int64
	if mp < 10 {
		m = mp + 3
	} else {
		m = mp - 9
	}
	if m <= 2 {
		y++
	}
	return int(y), time.Month(m), int(d)
}

// ymdFromDayID returns the YearMonthDay key for a day identifier.
func ymdFromDayID(id int32) int32 {
	y, m, d := civilFromDayID(id)
	return int32(y)*10000 + int32(m)*100 + int32(d)
}

// splitYMD unpacks a YearMonthDay key into its components. It does not
// validate that the components form an existing date.
func splitYMD(ymd int32) (year int, month time.Month, day int) {
	return int(ymd / 10000), time.Month(ymd / 100 % 100), int(ymd % 100)
}

// ymdFromCivil packs a civil date into a YearMonthDay key.
func ymdFromCivil(year int, month time.Month, day int) int32 {
	return int32(year)*10000 + int32(month)*100 + int32(day)
}
