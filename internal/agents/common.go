package agents

import "time"

// orDefault returns d if positive, else fallback. Every agent's Timeout
// field is optional; zero means "use the default for this role".
func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
