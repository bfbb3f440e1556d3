package publish

import (
	"fmt"
	"time"

	"github.com/garyburd/redigo/redis"

	"github.com/ajanata/ds3231/internal/config"
)

type redisConn interface {
	Do(cmd string, args ...interface{}) (interface{}, error)
	Close() error
}

// Redis stores the latest reading as fields of a hash.
type Redis struct {
	conn redisConn
	key  string
}

func DialRedis(cfg config.RedisConfig) (*Redis, error) {
	conn, err := redis.Dial("tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("redis: dial %s: %w", cfg.Address, err)
	}
	return newRedis(conn, cfg.Key), nil
}

func newRedis(conn redisConn, key string) *Redis {
	return &Redis{conn: conn, key: key}
}

func (r *Redis) Publish(rd Reading) error {
	lost := 0
	if rd.LostPower {
		lost = 1
	}
	_, err := r.conn.Do("HMSET", r.key,
		"time", rd.DateTime.Time().Format(time.RFC3339),
		"weekday", rd.DateTime.Weekday,
		"lost_power", lost,
	)
	if err != nil {
		return fmt.Errorf("redis: hmset %s: %w", r.key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.conn.Close()
}
