package ports

// ProgressObserver is notified once per admitted frame, in admission order,
// from the encoder's consumer goroutine.
type ProgressObserver interface {
	// FrameDone returns false to abort encoding.
	FrameDone() bool
}

// ProgressFunc adapts a function to ProgressObserver.
type ProgressFunc func() bool

// FrameDone implements ProgressObserver.
func (f ProgressFunc) FrameDone() bool {
	return f()
}

// ErrorObserver receives human readable diagnostics.
type ErrorObserver interface {
	ReportError(message string)
}

// ErrorFunc adapts a function to ErrorObserver.
type ErrorFunc func(message string)

// ReportError implements ErrorObserver.
func (f ErrorFunc) ReportError(message string) {
	f(message)
}
