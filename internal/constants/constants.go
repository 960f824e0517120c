package constants

// 队列与任务
const (
	QueueDefault          = "default"
	TaskCatalogWarm       = "catalog:warm"
	TaskCartSnapshotPrune = "cart:snapshot_prune"
)

// 组件名称（logger.Named）
const (
	ComponentAPI     = "api"
	ComponentWorker  = "worker"
	ComponentCart    = "cart"
	ComponentCatalog = "catalog"
)
