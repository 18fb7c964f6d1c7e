package queue

import "sync"

// Progress is a snapshot published after each item completes.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
	Failed  int `json:"failed"`
}

// Observer receives batch progress. Calls come from the worker goroutine, in order.
type Observer interface {
	OnProgress(p Progress)
	OnComplete(o Outcome)
}

// ObserverFuncs adapts plain functions to Observer; nil fields are ignored.
type ObserverFuncs struct {
	Progress func(Progress)
	Complete func(Outcome)
}

func (f ObserverFuncs) OnProgress(p Progress) {
	if f.Progress != nil {
		f.Progress(p)
	}
}

func (f ObserverFuncs) OnComplete(o Outcome) {
	if f.Complete != nil {
		f.Complete(o)
	}
}

// ProgressTracker 进度追踪器
type ProgressTracker struct {
	total     int
	completed int
	failed    int
	mu        sync.RWMutex
}

// NewProgressTracker 创建进度追踪器
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{
		total: total,
	}
}

// IncrementCompleted 增加完成数
func (t *ProgressTracker) IncrementCompleted() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed++
	return t.snapshot()
}

// IncrementFailed 增加失败数
func (t *ProgressTracker) IncrementFailed() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed++
	return t.snapshot()
}

// GetProgress 获取进度
func (t *ProgressTracker) GetProgress() Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot()
}

func (t *ProgressTracker) snapshot() Progress {
	return Progress{
		Current: t.completed + t.failed,
		Total:   t.total,
		Failed:  t.failed,
	}
}
