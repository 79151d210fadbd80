// Package workers runs the application's background workers, such as the
// engine's sync scheduler, through one uniform aggregate.
package workers

// Worker is a runnable background task. Run either blocks for the lifetime
// of the work or spawns goroutines internally and returns.
type Worker interface {
	Run()
}
