package app

import "time"

// nextDelay is the time left until the next quarter hour.
func nextDelay(now time.Time) time.Duration {
	// minute 60 rolls over into the next hour
	nextQuarter := time.Date(
		now.Year(),
		now.Month(),
		now.Day(),
		now.Hour(),
		(now.Minute()/15+1)*15,
		0,
		0,
		now.Location(),
	)
	return nextQuarter.Sub(now)
}
