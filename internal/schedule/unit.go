package schedule

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Unit is the time granularity a job's interval is counted in.
type Unit int

// Supported units. The zero value means no unit has been selected yet.
const (
	unitUnset Unit = iota
	Seconds
	Minutes
	Hours
	Days
	Weeks
)

var unitNames = [...]string{
	unitUnset: "",
	Seconds:   "seconds",
	Minutes:   "minutes",
	Hours:     "hours",
	Days:      "days",
	Weeks:     "weeks",
}

var unitDurations = [...]time.Duration{
	Seconds: time.Second,
	Minutes: time.Minute,
	Hours:   time.Hour,
	Days:    24 * time.Hour,
	Weeks:   7 * 24 * time.Hour,
}

// Valid reports whether u is one of the five supported units.
func (u Unit) Valid() bool {
	return u >= Seconds && u <= Weeks
}

// Duration returns the length of one unit, or 0 for an invalid unit.
func (u Unit) Duration() time.Duration {
	if !u.Valid() {
		return 0
	}
	return unitDurations[u]
}

// String returns the plural unit name ("seconds", "minutes", ...).
func (u Unit) String() string {
	if !u.Valid() {
		return fmt.Sprintf("Unit(%d)", int(u))
	}
	return unitNames[u]
}

// MaxInterval returns the largest interval whose period fits in a
// time.Duration, or 0 for an invalid unit.
func (u Unit) MaxInterval() int {
	if !u.Valid() {
		return 0
	}
	return int(math.MaxInt64 / int64(u.Duration()))
}

// Period scales interval by u. Intervals whose period does not fit in a
// time.Duration are rejected with ErrIntervalRange.
func (u Unit) Period(interval int) (time.Duration, error) {
	if !u.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidUnit, u)
	}
	if limit := u.MaxInterval(); interval > limit || interval < -limit {
		return 0, fmt.Errorf("%w: %d %s exceeds %d", ErrIntervalRange, interval, u, limit)
	}
	return time.Duration(interval) * u.Duration(), nil
}

// ParseUnit maps a unit name to a Unit. Singular and plural forms are
// accepted, case-insensitively.
func ParseUnit(s string) (Unit, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for u := Seconds; u <= Weeks; u++ {
		plural := unitNames[u]
		if name == plural || name == strings.TrimSuffix(plural, "s") {
			return u, nil
		}
	}
	return unitUnset, fmt.Errorf("%w: %q", ErrInvalidUnit, s)
}
