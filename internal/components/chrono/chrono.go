package chrono

import "time"

var taipei *time.Location

func init() {
	var err error
	taipei, err = time.LoadLocation("Asia/Taipei")
	if err != nil {
		// taiwan has not observed dst since 1979
		taipei = time.FixedZone("CST", 8*60*60)
	}
}

// Taipei returns a [*time.Location] for Asia/Taipei, the exchanges publish
// their trading days in this timezone.
func Taipei() *time.Location {
	return taipei
}

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time, the timezone of the time will default to Asia/Taipei.
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

// NewStandardTime is the constructor of StandardTime.
func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (s StandardTime) Now() time.Time {
	return time.Now().In(taipei)
}

// FixedTime is a TimeAPI that always returns the same instant.
type FixedTime struct {
	T time.Time
}

func (f FixedTime) Now() time.Time {
	return f.T
}
