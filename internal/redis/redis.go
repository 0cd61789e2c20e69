package redis

import (
	"github.com/redis/go-redis/v9"
)

// NewClient connects to redis; used for pairing codes and state ETag caching.
func NewClient(address, username, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})
}

// PairingKey namespaces a pairing code in redis.
func PairingKey(code string) string { return "pairing:" + code }
