package database

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedis(rdb, "test")
	defer s.Close()

	runCollectionSuite(t, s)

	assert.True(t, mr.Exists("test:activities:b"))
	assert.False(t, mr.Exists("test:activities:a"))
}
