package presence

import (
	"strconv"
	"strings"
	"time"
)

// TokenPrefix is the literal prefix of every daily token.
const TokenPrefix = "TOKEN-"

// DailyToken is the rotating check-in credential for one calendar day.
type DailyToken struct {
	Date  string `json:"date"`
	Token string `json:"token"`
}

// DateString renders a time as the logical calendar day, YYYY-MM-DD in UTC.
func DateString(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// TokenForDate derives the token for a date string. It is a pure function
// of the date: a polynomial rolling hash (h = h*31 + char) wrapped to a
// 32-bit signed integer, absolute value, base-36, uppercased.
func TokenForDate(date string) string {
	var h int32
	for _, c := range date {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return TokenPrefix + strings.ToUpper(strconv.FormatInt(v, 36))
}
