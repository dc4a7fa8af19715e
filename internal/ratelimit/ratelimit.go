// Package ratelimit implements per-user command flood control backed by
// Redis. Without a configured Redis address, or whenever Redis is
// unreachable, the limiter fails open so the bot stays available.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
)

var (
	Requests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taskbot_rate_limiter_requests_total",
			Help: "Commands seen by the rate limiter",
		},
	)
	Blocked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taskbot_rate_limiter_blocked_total",
			Help: "Commands blocked by the rate limiter",
		},
	)
)

func init() {
	prometheus.MustRegister(Requests)
	prometheus.MustRegister(Blocked)
}

var client *redis.Client

// Init connects the shared Redis client. An empty addr leaves the limiter
// disabled; a failed ping disables it too rather than taking the bot down.
func Init(addr, password string, db int) {
	if addr == "" {
		return
	}
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		client = nil
		return
	}
	client = c
}

// Limiter is a fixed-window counter per user: at most Max commands per Window.
type Limiter struct {
	max    int
	window time.Duration
}

func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{max: max, window: window}
}

// Allow reports whether userID may run another command right now.
// Implemented as INCR + EXPIRE on a per-user window key; any Redis error
// allows the command through.
func (l *Limiter) Allow(ctx context.Context, userID int64) bool {
	if client == nil {
		return true
	}

	key := "rl:" + strconv.FormatInt(int64(l.window.Seconds()), 10) + ":" + strconv.FormatInt(userID, 10)

	val, err := client.Incr(ctx, key).Result()
	if err != nil {
		return true
	}
	if val == 1 {
		client.Expire(ctx, key, l.window)
	}

	Requests.Inc()
	if val > int64(l.max) {
		Blocked.Inc()
		return false
	}
	return true
}
