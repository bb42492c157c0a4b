package chrono

import "time"

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time in UTC.
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

// NewStandardTime is the constructor of StandardTime.
func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (StandardTime) Now() time.Time {
	return time.Now().UTC()
}

// FixedTime is a TimeAPI that always returns the time it holds, it is used
// to drive window and offset logic deterministically.
type FixedTime struct {
	T time.Time
}

func (f *FixedTime) Now() time.Time {
	return f.T
}

// Advance moves the clock forward by d.
func (f *FixedTime) Advance(d time.Duration) {
	f.T = f.T.Add(d)
}

// PastTheHour returns how far into the current hour t is, at second precision.
func PastTheHour(t time.Time) time.Duration {
	return time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
}
