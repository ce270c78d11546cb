package app

import (
	"github.com/redis/go-redis/v9"

	"github.com/trustreach/verifyd/internal/database"
)

// RedisOptions converts the cache section into go-redis client options.
func (c CacheConfig) RedisOptions() *redis.Options {
	return &redis.Options{
		Addr:         c.Redis.Address,
		Username:     c.Redis.Username,
		Password:     c.Redis.Password,
		DB:           c.Redis.DB,
		DialTimeout:  c.Redis.Timeout,
		ReadTimeout:  c.Redis.Timeout,
		WriteTimeout: c.Redis.Timeout,
	}
}

// DatabaseConfig converts the audit database section for database.Open.
func (c AuditConfig) DatabaseConfig() database.Config {
	return database.Config{
		Driver:   c.Database.Driver,
		Path:     c.Database.Path,
		DSN:      c.Database.DSN,
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Name:     c.Database.Name,
		User:     c.Database.Username,
		Password: c.Database.Password,
	}
}
