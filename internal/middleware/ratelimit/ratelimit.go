// Package ratelimit caps how many write requests one client may make per
// window.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

type Config struct {
	// Requests allowed per client in each Window.
	Requests int
	Window   time.Duration
	// CleanupInterval controls how often idle clients are forgotten.
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{Requests: 60, Window: time.Minute, CleanupInterval: 5 * time.Minute}
}

type window struct {
	start time.Time
	count int
}

// Limiter is a fixed-window counter keyed by client.
type Limiter struct {
	mu      sync.Mutex
	cfg     Config
	now     func() time.Time
	clients map[string]*window
	stop    chan struct{}
	once    sync.Once
}

func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.Requests <= 0 {
		cfg.Requests = def.Requests
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		clients: make(map[string]*window),
		stop:    make(chan struct{}),
	}
	go l.janitor()
	return l
}

// Allow records one request from key and reports whether it is within limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= l.cfg.Window {
		l.clients[key] = &window{start: now, count: 1}
		return true
	}
	w.count++
	return w.count <= l.cfg.Requests
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) janitor() {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.forgetIdle()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) forgetIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-2 * l.cfg.Window)
	for k, w := range l.clients {
		if w.start.Before(cutoff) {
			delete(l.clients, k)
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// WritesOnly limits requests whose method can change state. Reads pass
// through. onLimit writes the rejection; nil sends a plain 429.
func (l *Limiter) WritesOnly(clientKey func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(l.cfg.Window.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if l.Allow(clientKey(r)) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", retryAfter)
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		})
	}
}
