package database

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a Redis client from a redis:// URI. The client dials
// lazily, so the first cache or queue command establishes the connection and
// failed connections are retried automatically by the driver.
func NewRedisClient(redisURI string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURI)
	if err != nil {
		return nil, err
	}

	// Configure connection pool and timeouts for better resilience
	opt.PoolSize = 10                     // Connection pool size
	opt.MinIdleConns = 5                  // Minimum idle connections
	opt.MaxRetries = 3                    // Retry failed commands up to 3 times
	opt.DialTimeout = 5 * time.Second     // Timeout for establishing connection
	opt.ReadTimeout = 3 * time.Second     // Timeout for read operations
	opt.WriteTimeout = 3 * time.Second    // Timeout for write operations
	opt.PoolTimeout = 4 * time.Second     // Timeout for getting connection from pool
	opt.ConnMaxIdleTime = 5 * time.Minute // Close idle connections after 5 minutes

	return redis.NewClient(opt), nil
}
