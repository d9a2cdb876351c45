package workers

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"ngandee-matcher/internal/config"
	"ngandee-matcher/internal/logging"
)

// PosterLimiter tracks rate limiting state for one employer account
type PosterLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	requests int64
	failures int64
	mu       sync.RWMutex
}

// CircuitBreaker guards one poster against hammering a failing pipeline
type CircuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration
	failureCount int
	lastFailTime time.Time
	state        CircuitState
	mu           sync.RWMutex
}

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// RateLimiter throttles ranking requests per poster so one employer cannot
// monopolize the pool or the embedding quota.
type RateLimiter struct {
	config          *config.Config
	posterLimiters  map[string]*PosterLimiter
	circuitBreakers map[string]*CircuitBreaker
	mu              sync.RWMutex
	logger          logging.Logger
	cleanupTicker   *time.Ticker
	stopCleanup     chan bool
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(cfg *config.Config) *RateLimiter {
	rl := &RateLimiter{
		config:          cfg,
		posterLimiters:  make(map[string]*PosterLimiter),
		circuitBreakers: make(map[string]*CircuitBreaker),
		logger:          logging.GetGlobalLogger().WithField("component", "rate_limiter"),
		cleanupTicker:   time.NewTicker(5 * time.Minute),
		stopCleanup:     make(chan bool),
	}

	go rl.cleanupRoutine()

	return rl
}

// Allow checks if a ranking request from the given poster is allowed
func (rl *RateLimiter) Allow(posterID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	posterID = normalizePosterID(posterID)

	if !rl.isCircuitClosed(posterID) {
		rl.logger.Debug("Request rejected by circuit breaker", map[string]interface{}{
			"poster_id": posterID,
		})
		return false
	}

	limiter := rl.getPosterLimiter(posterID)

	allowed := limiter.limiter.Allow()
	if allowed {
		limiter.mu.Lock()
		limiter.requests++
		limiter.lastSeen = time.Now()
		limiter.mu.Unlock()
	} else {
		rl.logger.Debug("Request rejected by rate limiter", map[string]interface{}{
			"poster_id": posterID,
		})
	}

	return allowed
}

// RecordSuccess records a successful ranking batch for the poster
func (rl *RateLimiter) RecordSuccess(posterID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	posterID = normalizePosterID(posterID)

	if cb, exists := rl.circuitBreakers[posterID]; exists {
		cb.mu.Lock()
		if cb.state == CircuitHalfOpen {
			cb.state = CircuitClosed
			cb.failureCount = 0
			rl.logger.Info("Circuit breaker closed after successful batch", map[string]interface{}{
				"poster_id": posterID,
			})
		}
		cb.mu.Unlock()
	}
}

// RecordFailure records a failed ranking batch for the poster
func (rl *RateLimiter) RecordFailure(posterID string, err error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	posterID = normalizePosterID(posterID)

	if limiter, exists := rl.posterLimiters[posterID]; exists {
		limiter.mu.Lock()
		limiter.failures++
		limiter.mu.Unlock()
	}

	cb := rl.getCircuitBreaker(posterID)
	cb.mu.Lock()
	cb.failureCount++
	cb.lastFailTime = time.Now()

	if cb.failureCount >= cb.maxFailures && cb.state == CircuitClosed {
		cb.state = CircuitOpen
		rl.logger.Warn("Circuit breaker opened due to failures", map[string]interface{}{
			"poster_id": posterID,
			"failures":  cb.failureCount,
			"error":     err.Error(),
		})
	}
	cb.mu.Unlock()
}

func (rl *RateLimiter) getPosterLimiter(posterID string) *PosterLimiter {
	if limiter, exists := rl.posterLimiters[posterID]; exists {
		return limiter
	}

	rps := rate.Limit(float64(rl.config.Workers.RateLimit) / 60.0)
	burst := 5

	limiter := &PosterLimiter{
		limiter:  rate.NewLimiter(rps, burst),
		lastSeen: time.Now(),
	}
	rl.posterLimiters[posterID] = limiter
	return limiter
}

func (rl *RateLimiter) getCircuitBreaker(posterID string) *CircuitBreaker {
	if cb, exists := rl.circuitBreakers[posterID]; exists {
		return cb
	}

	cb := &CircuitBreaker{
		maxFailures:  5,
		resetTimeout: 30 * time.Second,
		state:        CircuitClosed,
	}
	rl.circuitBreakers[posterID] = cb
	return cb
}

func (rl *RateLimiter) isCircuitClosed(posterID string) bool {
	cb := rl.getCircuitBreaker(posterID)

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed, CircuitHalfOpen:
		return true
	case CircuitOpen:
		if time.Since(cb.lastFailTime) > cb.resetTimeout {
			cb.state = CircuitHalfOpen
			rl.logger.Info("Circuit breaker transitioned to half-open", map[string]interface{}{
				"poster_id": posterID,
			})
			return true
		}
		return false
	default:
		return false
	}
}

// GetPosterStats returns statistics for a specific poster
func (rl *RateLimiter) GetPosterStats(posterID string) map[string]interface{} {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	posterID = normalizePosterID(posterID)
	stats := make(map[string]interface{})

	if limiter, exists := rl.posterLimiters[posterID]; exists {
		limiter.mu.RLock()
		stats["requests"] = limiter.requests
		stats["failures"] = limiter.failures
		stats["last_seen"] = limiter.lastSeen
		stats["limit"] = limiter.limiter.Limit()
		stats["burst"] = limiter.limiter.Burst()
		limiter.mu.RUnlock()
	}

	if cb, exists := rl.circuitBreakers[posterID]; exists {
		cb.mu.RLock()
		stats["circuit_state"] = cb.state.String()
		stats["failure_count"] = cb.failureCount
		stats["max_failures"] = cb.maxFailures
		cb.mu.RUnlock()
	}

	return stats
}

// GetAllStats returns statistics for all posters seen recently
func (rl *RateLimiter) GetAllStats() map[string]map[string]interface{} {
	rl.mu.RLock()
	posters := make(map[string]bool)
	for id := range rl.posterLimiters {
		posters[id] = true
	}
	for id := range rl.circuitBreakers {
		posters[id] = true
	}
	rl.mu.RUnlock()

	allStats := make(map[string]map[string]interface{}, len(posters))
	for id := range posters {
		allStats[id] = rl.GetPosterStats(id)
	}
	return allStats
}

func (rl *RateLimiter) cleanupRoutine() {
	for {
		select {
		case <-rl.cleanupTicker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			rl.cleanupTicker.Stop()
			return
		}
	}
}

// cleanup removes limiter state for posters not seen recently
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)

	for id, limiter := range rl.posterLimiters {
		limiter.mu.RLock()
		lastSeen := limiter.lastSeen
		limiter.mu.RUnlock()
		if lastSeen.Before(cutoff) {
			delete(rl.posterLimiters, id)
		}
	}

	for id, cb := range rl.circuitBreakers {
		cb.mu.RLock()
		lastFailTime := cb.lastFailTime
		state := cb.state
		cb.mu.RUnlock()
		if state == CircuitClosed && lastFailTime.Before(cutoff) {
			delete(rl.circuitBreakers, id)
		}
	}
}

// Stop stops the rate limiter and cleanup routine
func (rl *RateLimiter) Stop() {
	rl.stopCleanup <- true
}

// String returns string representation of CircuitState
func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func normalizePosterID(posterID string) string {
	id := strings.ToLower(strings.TrimSpace(posterID))
	if id == "" {
		return "unknown"
	}
	return id
}
