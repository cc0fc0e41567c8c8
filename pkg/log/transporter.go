package log

// Transporter is a log output destination (stdout, file, shipper).
type Transporter interface {
	// Name identifies the transporter in failure messages.
	Name() string

	// Write sends one entry to the destination.
	Write(entry Entry) error

	// Close releases the destination. Write must not be called after.
	Close() error
}
