package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// RevokedTokenKey returns the cache key marking a JWT (by JTI) as logged out
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

// ResultEventsChannel returns the Redis PubSub channel carrying result transitions
func (r *CacheKeyStruct) ResultEventsChannel() string {
	return "results:events"
}

// ExamKey returns the cache key holding an exam's JSON
func (r *CacheKeyStruct) ExamKey(examID string) string {
	return fmt.Sprintf("exam:%s", examID)
}

var CacheKey = NewCacheKeyStruct()
