package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"oceanai_dev_v1/internal/repository"
	"oceanai_dev_v1/internal/service"
	"oceanai_dev_v1/pkg/utils"
)

// CleanupTask 定时清理任务
// 1. 删除存储中不再被任何文档记录引用的孤儿文件
// 2. 回收内存缓存中已过期的键
type CleanupTask struct {
	DocRepo repository.DocumentRepository
	Storage service.StorageProvider
	Cron    *cron.Cron
}

func NewCleanupTask(docRepo repository.DocumentRepository, storage service.StorageProvider) *CleanupTask {
	return &CleanupTask{
		DocRepo: docRepo,
		Storage: storage,
		Cron:    cron.New(cron.WithSeconds()), // 支持秒级控制
	}
}

// Start 启动定时任务
func (t *CleanupTask) Start() {
	// 每小时整点清理一次
	_, err := t.Cron.AddFunc("0 0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		t.cleanupJob(ctx)
	})

	if err != nil {
		log.Fatalf("无法启动清理定时任务: %v", err)
	}

	t.Cron.Start()
	log.Println("存储清理任务已启动 (每小时执行一次)")
}

// Stop 停止定时任务
func (t *CleanupTask) Stop() {
	t.Cron.Stop()
}

// cleanupJob 清理逻辑
func (t *CleanupTask) cleanupJob(ctx context.Context) {
	// 过期缓存回收
	expired := 0
	utils.RangeExpired(func(key string) {
		expired++
	})
	if expired > 0 {
		log.Printf("[Cron] 回收了 %d 个过期缓存键", expired)
	}

	if t.Storage == nil {
		return
	}

	// 数据库里仍被引用的文件名集合
	referenced, err := t.DocRepo.ListStoredFilenames(ctx)
	if err != nil {
		log.Printf("[Cron] 查询文档文件名失败: %v", err)
		return
	}
	refSet := make(map[string]struct{}, len(referenced))
	for _, name := range referenced {
		refSet[name] = struct{}{}
	}

	stored, err := t.Storage.ListStoredNames(ctx)
	if err != nil {
		log.Printf("[Cron] 列举存储文件失败: %v", err)
		return
	}

	removed := 0
	for _, name := range stored {
		select {
		case <-ctx.Done():
			log.Println("[Cron] 清理任务超时停止")
			return
		default:
		}

		if _, ok := refSet[name]; ok {
			continue
		}
		if err := t.Storage.Delete(ctx, name); err != nil {
			log.Printf("[Cron] 删除孤儿文件 %s 失败: %v", name, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Printf("[Cron] 清理了 %d 个孤儿文件 (存储共 %d 个，引用 %d 个)", removed, len(stored), len(referenced))
	}
}
