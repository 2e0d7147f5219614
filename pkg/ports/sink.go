package ports

// ByteSink receives the encoded GIF byte stream.
// Write may block; that is how a slow destination pushes back on the encoder.
type ByteSink interface {
	// Write delivers the next chunk of the stream. The sink must not retain p.
	Write(p []byte) error

	// Flush pushes buffered bytes to the destination.
	Flush() error
}

// SinkCloser is implemented by sinks that hold a resource until the stream ends.
type SinkCloser interface {
	// Close releases the sink. A non-nil cause means encoding failed and
	// any partial output should be discarded.
	Close(cause error) error
}
