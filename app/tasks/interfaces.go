package tasks

// TaskSchedulerInterface is the scheduling surface consumed by the HTTP
// handlers and the serve-mode entry point.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
