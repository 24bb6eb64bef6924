package services

// Observer receives workflow events, typically to feed metrics.
type Observer interface {
	ObserveOutcome(operation, outcome string)
	ObserveMirrorFailure(operation string)
	ObserveNotifierFailure()
}

type noopObserver struct{}

func (noopObserver) ObserveOutcome(string, string) {}
func (noopObserver) ObserveMirrorFailure(string)   {}
func (noopObserver) ObserveNotifierFailure()       {}
