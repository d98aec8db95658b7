package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/couponhub/coupon_api/dto"
)

// RateLimitStore holds fixed-window counters keyed by client+route. The
// in-memory store is the default; the Redis store exists so multi-instance
// deployments can share counters without touching call sites.
type RateLimitStore interface {
	// Incr bumps the counter for key, starting a fresh window expiring at
	// now+window when none is active. Window rollover is lazy: the first
	// call after the deadline resets the count to 1.
	Incr(key string, window time.Duration) (count int, resetAt time.Time, err error)
	Reset(key string) error
}

type rateLimitEntry struct {
	count         int
	windowResetAt time.Time
}

type memoryRateLimitStore struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry
	now     func() time.Time
}

func newMemoryRateLimitStore() *memoryRateLimitStore {
	return &memoryRateLimitStore{
		entries: make(map[string]*rateLimitEntry),
		now:     time.Now,
	}
}

func (s *memoryRateLimitStore) Incr(key string, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, exists := s.entries[key]
	if !exists || now.After(entry.windowResetAt) {
		entry = &rateLimitEntry{count: 1, windowResetAt: now.Add(window)}
		s.entries[key] = entry
		return entry.count, entry.windowResetAt, nil
	}

	entry.count++
	return entry.count, entry.windowResetAt, nil
}

func (s *memoryRateLimitStore) Reset(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// sweep drops entries whose window deadline has passed. Counters are never
// deleted on normal traffic, so this bounds the map between busy keys.
func (s *memoryRateLimitStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.windowResetAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

type redisRateLimitStore struct {
	redisSvc *RedisService
}

func (s *redisRateLimitStore) Incr(key string, window time.Duration) (int, time.Time, error) {
	ctx := context.Background()
	client := s.redisSvc.GetClient()

	count, err := client.Incr(ctx, "ratelimit:"+key).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	if count == 1 {
		if err := client.PExpire(ctx, "ratelimit:"+key, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
	}

	ttl, err := client.PTTL(ctx, "ratelimit:"+key).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	return int(count), time.Now().Add(ttl), nil
}

func (s *redisRateLimitStore) Reset(key string) error {
	return s.redisSvc.GetClient().Del(context.Background(), "ratelimit:"+key).Err()
}

type RateLimitService struct {
	appContext.DefaultService

	store    RateLimitStore
	memStore *memoryRateLimitStore
	useRedis bool
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	svc.memStore = newMemoryRateLimitStore()
	svc.store = svc.memStore
	svc.useRedis = os.Getenv("RATE_LIMIT_STORE") == "redis"
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	if svc.useRedis {
		redisSvc := svc.Service(REDIS_SVC).(*RedisService)
		svc.store = &redisRateLimitStore{redisSvc: redisSvc}
		log.WithField("category", "system").Info("Rate limiting backed by Redis")
	} else {
		go svc.startCleanupJob()
	}
	return nil
}

// Check applies a fixed-window limit for the (clientKey, routeKey) pair.
// The caller turns a disallowed verdict into a RateLimit error so the
// pipeline can short-circuit and log it as a security event.
func (svc *RateLimitService) Check(clientKey, routeKey string, maxRequests int, window time.Duration) (bool, *dto.RateLimitInfo, error) {
	key := fmt.Sprintf("%s:%s", clientKey, routeKey)

	count, resetAt, err := svc.store.Incr(key, window)
	if err != nil {
		return false, nil, err
	}

	info := &dto.RateLimitInfo{
		Count:     count,
		Limit:     maxRequests,
		ResetTime: &resetAt,
	}

	if count > maxRequests {
		info.Allowed = false
		info.Remaining = 0
		return false, info, nil
	}

	info.Allowed = true
	info.Remaining = maxRequests - count
	return true, info, nil
}

func (svc *RateLimitService) ResetKey(clientKey, routeKey string) error {
	return svc.store.Reset(fmt.Sprintf("%s:%s", clientKey, routeKey))
}

// AddRateLimitHeaders mirrors the verdict onto the response so well-behaved
// clients can back off before hitting the limit.
func (svc *RateLimitService) AddRateLimitHeaders(c *fiber.Ctx, info *dto.RateLimitInfo) {
	if info == nil {
		return
	}

	c.Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))

	if info.ResetTime != nil {
		c.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
		if !info.Allowed {
			retryAfter := int(time.Until(*info.ResetTime).Seconds())
			if retryAfter > 0 {
				c.Set("Retry-After", strconv.Itoa(retryAfter))
			}
		}
	}
}

func (svc *RateLimitService) startCleanupJob() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		if removed := svc.memStore.sweep(); removed > 0 {
			log.WithFields(log.Fields{
				"category": "system",
				"removed":  removed,
			}).Debug("Rate limit window sweep completed")
		}
	}
}
