package middleware

import (
	"fmt"
	"sync"
	"time"
)

// ==================== GenRateLimiter 生成限流器 ====================

// GenRateLimiter 生成任务限流器
// 防止用户频繁触发文档生成导致模型 API 限流
type GenRateLimiter struct {
	locks sync.Map // key -> *lockEntry
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// 全局限流器实例
var globalLimiter = &GenRateLimiter{}

// GetLimiter 获取全局限流器
func GetLimiter() *GenRateLimiter {
	return globalLimiter
}

// ==================== 限流检查 ====================

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行
// key: 限流键，如 "user:123:generate"
// interval: 冷却间隔
func (r *GenRateLimiter) Check(key string, interval time.Duration) CheckResult {
	// 获取或创建锁条目
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(entry.lastTime)

	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	// 更新最后执行时间
	entry.lastTime = now
	return CheckResult{
		Allowed:    true,
		RetryAfter: 0,
	}
}

// Reset 重置指定 key 的限流
func (r *GenRateLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// ==================== Key 生成工具 ====================

// TaskType 任务类型
type TaskType string

const (
	TaskTypeGenerate TaskType = "generate"
	TaskTypeRefine   TaskType = "refine"
	TaskTypeAnalyze  TaskType = "analyze"
)

// UserTaskKey 生成用户级任务 Key
func UserTaskKey(userID int64, taskType TaskType) string {
	return fmt.Sprintf("user:%d:%s", userID, taskType)
}

// ==================== 默认限流间隔 ====================

// DefaultIntervals 默认限流间隔配置
var DefaultIntervals = map[TaskType]time.Duration{
	TaskTypeGenerate: 10 * time.Second,
	TaskTypeRefine:   10 * time.Second,
	TaskTypeAnalyze:  5 * time.Second,
}

// GetInterval 获取任务类型的默认间隔
func GetInterval(taskType TaskType) time.Duration {
	if interval, ok := DefaultIntervals[taskType]; ok {
		return interval
	}
	return 10 * time.Second // 默认 10 秒
}
