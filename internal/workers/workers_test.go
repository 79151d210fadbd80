package workers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingWorker appends its name to a shared log so tests can observe
// which workers ran and in what order.
type recordingWorker struct {
	name string
	log  *[]string
}

func (w *recordingWorker) Run() {
	*w.log = append(*w.log, w.name)
}

func TestNewWorkers_RunsAllInOrder(t *testing.T) {
	var log []string

	ws := NewWorkers(
		&recordingWorker{name: "scheduler", log: &log},
		&recordingWorker{name: "queue", log: &log},
		&recordingWorker{name: "audit-export", log: &log},
	)
	ws.Run()

	assert.Equal(t, []string{"scheduler", "queue", "audit-export"}, log)
}

func TestNewWorkers_NoWorkers(t *testing.T) {
	assert.NotPanics(t, func() { NewWorkers().Run() })
}

func TestWorkers_ZeroValue(t *testing.T) {
	var ws Workers
	assert.NotPanics(t, func() { ws.Run() })
}

func TestWorkers_RunTwiceRunsWorkersTwice(t *testing.T) {
	var log []string

	ws := NewWorkers(&recordingWorker{name: "scheduler", log: &log})
	ws.Run()
	ws.Run()

	assert.Len(t, log, 2)
}
