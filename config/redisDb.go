package config

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis opens the redis client and the lock client built on it.
// Redis is optional here: it only backs cross-instance key locks, so after a
// few failed attempts the caller gets nils and lock acquisition falls back to
// in-process mutexes.
func ConnectRedis() (*redis.Client, *redislock.Client) {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		log.Printf("REDIS_ADDRESS not set; per-key locks will be in-process only")
		return nil, nil
	}

	ctx := context.Background()
	for attempt := 1; attempt <= 5; attempt++ {
		rdb := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: "",
			DB:       0,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err == nil {
			log.Printf("connected to redis (attempt=%d addr=%s)", attempt, redisAddr)
			return rdb, redislock.New(rdb)
		} else {
			sleep := time.Second * time.Duration(1<<min(attempt, 5))
			if sleep > 30*time.Second {
				sleep = 30 * time.Second
			}
			log.Printf("failed to connect redis (attempt=%d addr=%s): %v; retrying in %s", attempt, redisAddr, err, sleep)
			time.Sleep(sleep)
		}
	}
	log.Printf("redis unavailable at %s; per-key locks will be in-process only", redisAddr)
	return nil, nil
}
