package clients

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
)

// NewCircuitBreaker returns a gobreaker configured to trip after 3 consecutive
// failures and reset after 30 seconds in the open state. Any non-nil error
// counts as a failure.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(breakerSettings(name, nil))
}

// NewMongoCircuitBreaker is NewCircuitBreaker for the admin session: replies
// from a reachable server (duplicate user, unauthorized) do not count as
// failures, only transport errors do.
func NewMongoCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(breakerSettings(name, serverAnswered))
}

func breakerSettings(name string, isSuccessful func(error) bool) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: isSuccessful,
	}
}

func serverAnswered(err error) bool {
	if err == nil {
		return true
	}
	var se mongo.ServerError
	return errors.As(err, &se) && !mongo.IsNetworkError(err) && !mongo.IsTimeout(err)
}
