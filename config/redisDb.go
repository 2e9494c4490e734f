package config

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var rdb *redis.Client

var redisCtx = context.Background()

func GetRedisDB() *redis.Client {
	return rdb
}

// GetRedisObject loads a JSON-encoded object. Returns (false, nil) on cache
// miss or when redis is not configured, so callers can fall through.
func GetRedisObject(key string, dest interface{}) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	val, err := rdb.Get(redisCtx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	err = json.Unmarshal([]byte(val), &dest)
	if err != nil {
		return false, err
	}
	return true, nil
}

func SetRedisObject(key string, obj interface{}, exp time.Duration) error {
	if rdb == nil {
		return nil
	}
	objInByte, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return rdb.Set(redisCtx, key, objInByte, exp).Err()
}

func RemoveRedisKey(keys ...string) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(redisCtx, keys...).Result()
	return err
}

// ConnectRedis connects the shared client when REDIS_ADDRESS is set. Redis is
// optional here; every helper above degrades to a no-op without it.
func ConnectRedis() {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: "",
		DB:       0,
		PoolSize: 100,
	})
	if err := client.Ping(redisCtx).Err(); err != nil {
		log.Printf("failed to connect redis (addr=%s): %v; continuing without cache", redisAddr, err)
		return
	}
	rdb = client
	log.Printf("connected to redis (addr=%s)", redisAddr)
}
