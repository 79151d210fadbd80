package workers

type Workers struct {
	workers []Worker
}

// NewWorkers groups the given workers into a single aggregate. Workers are
// started in the order they are passed.
func NewWorkers(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}
