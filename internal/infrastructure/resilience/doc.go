/*
Package resilience provides the circuit breaker that guards producer launches.

# Overview

When the capture producer cannot be started (missing binary, pipe
exhaustion) every request would otherwise fork and fail the same way. The
breaker notices a run of launch failures and rejects captures immediately
until a timeout passes, then lets a few trial launches through.

The breaker never retries. A capture that fails is reported once.

# Usage

	breaker := resilience.New("producer", resilience.Settings{
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	err := breaker.Execute(func() error {
		capture, err = launcher.Start()
		return err
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                         Open
*/
package resilience
