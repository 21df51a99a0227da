package utils

import (
	"math/rand"
	"time"
)

// Returns a random duration between the given min and max seconds
func GetRandomTime(min, max float64) time.Duration {
	randomDelay := min + rand.Float64()*(max-min)
	return time.Duration(randomDelay*1000) * time.Millisecond
}

// Returns a random duration between 0.5 and 1.0 seconds,
// used between paged listing requests to avoid rate limiting
func GetRandomDelay() time.Duration {
	return GetRandomTime(0.5, 1.0)
}
