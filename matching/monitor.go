package matching

// Monitor observes a pipeline run. Implementations must be safe for
// concurrent use; one pipeline serves many runs at once.
type Monitor interface {
	// StageFinished is called after each stage with the number of items or
	// results it produced.
	StageFinished(stage StageName, count int)

	// Degraded is called each time a stage falls back.
	Degraded(stage StageName, reason DegradeReason)
}

type noopMonitor struct{}

func (noopMonitor) StageFinished(StageName, int)       {}
func (noopMonitor) Degraded(StageName, DegradeReason) {}
