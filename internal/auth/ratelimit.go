package auth

import (
	"strings"
	"sync"
	"time"
)

// LoginThrottle counts failed sign-ins per client IP and username and locks
// the pair out once the window fills up. It complements the per-account
// lockout kept on the user row, which cannot see attempts against unknown
// usernames.
type LoginThrottle struct {
	mu       sync.Mutex
	attempts map[string]*attemptRecord
	max      int
	window   time.Duration
	lockout  time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type attemptRecord struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// ThrottleConfig tunes LoginThrottle. Zero values fall back to 5 attempts in
// 15 minutes with a 30 minute lockout.
type ThrottleConfig struct {
	MaxAttempts     int
	Window          time.Duration
	LockoutDuration time.Duration
	CleanupInterval time.Duration
}

func NewLoginThrottle(cfg ThrottleConfig) *LoginThrottle {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	lt := &LoginThrottle{
		attempts: make(map[string]*attemptRecord),
		max:      cfg.MaxAttempts,
		window:   cfg.Window,
		lockout:  cfg.LockoutDuration,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go lt.cleanupLoop(cfg.CleanupInterval)
	return lt
}

// Stop ends the background cleanup. Safe to call more than once.
func (lt *LoginThrottle) Stop() {
	lt.stopOnce.Do(func() { close(lt.stop) })
}

func throttleKey(ip, username string) string {
	return ip + "|" + strings.ToLower(strings.TrimSpace(username))
}

// Allow reports whether another attempt may be made, and if not, how long
// until the lockout ends.
func (lt *LoginThrottle) Allow(ip, username string) (bool, time.Duration) {
	now := lt.now()

	lt.mu.Lock()
	defer lt.mu.Unlock()

	record, exists := lt.attempts[throttleKey(ip, username)]
	if !exists {
		return true, 0
	}
	if now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	if now.Sub(record.firstAttempt) > lt.window {
		return true, 0
	}
	return record.count < lt.max, 0
}

// RecordFailure counts a failed attempt and reports whether it triggered a lockout.
func (lt *LoginThrottle) RecordFailure(ip, username string) bool {
	key := throttleKey(ip, username)
	now := lt.now()

	lt.mu.Lock()
	defer lt.mu.Unlock()

	record, exists := lt.attempts[key]
	if !exists || now.Sub(record.firstAttempt) > lt.window {
		record = &attemptRecord{firstAttempt: now}
		lt.attempts[key] = record
	}

	record.count++
	if record.count >= lt.max {
		record.lockedUntil = now.Add(lt.lockout)
		return true
	}
	return false
}

// RecordSuccess forgets earlier failures for the pair.
func (lt *LoginThrottle) RecordSuccess(ip, username string) {
	lt.mu.Lock()
	delete(lt.attempts, throttleKey(ip, username))
	lt.mu.Unlock()
}

func (lt *LoginThrottle) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lt.cleanup()
		case <-lt.stop:
			return
		}
	}
}

func (lt *LoginThrottle) cleanup() {
	now := lt.now()

	lt.mu.Lock()
	defer lt.mu.Unlock()

	for key, record := range lt.attempts {
		if now.Sub(record.firstAttempt) > lt.window && !now.Before(record.lockedUntil) {
			delete(lt.attempts, key)
		}
	}
}
