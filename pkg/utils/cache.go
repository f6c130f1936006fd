package utils

import (
	"sync"
	"time"
)

// 使用 sync.Map 保证并发安全
var memoryCache sync.Map

// cacheItem 内部结构，包含值和过期时间
type cacheItem struct {
	value      string
	expiration int64
}

// SetCache 设置缓存，默认 10 分钟过期
func SetCache(key string, value string) {
	SetCacheTTL(key, value, 10*time.Minute)
}

// SetCacheTTL 设置缓存并指定过期时间
// 用于 Google OAuth access token 这类由上游决定有效期的值
func SetCacheTTL(key string, value string, ttl time.Duration) {
	memoryCache.Store(key, cacheItem{
		value:      value,
		expiration: time.Now().Add(ttl).Unix(),
	})
}

// GetCache 获取缓存并验证是否过期
func GetCache(key string) (string, bool) {
	val, ok := memoryCache.Load(key)
	if !ok {
		return "", false
	}

	item := val.(cacheItem)

	// 过期懒删除
	if time.Now().Unix() > item.expiration {
		memoryCache.Delete(key)
		return "", false
	}

	return item.value, true
}

// DeleteCache 删除缓存 (用完即焚)
func DeleteCache(key string) {
	memoryCache.Delete(key)
}

// RangeExpired 遍历所有已过期的键，交给回调处理后删除
// 由定时清理任务调用，避免长生命周期进程内存缓慢增长
func RangeExpired(fn func(key string)) {
	now := time.Now().Unix()
	memoryCache.Range(func(k, v interface{}) bool {
		item := v.(cacheItem)
		if now > item.expiration {
			if fn != nil {
				fn(k.(string))
			}
			memoryCache.Delete(k)
		}
		return true
	})
}
