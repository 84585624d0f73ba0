package detector

// Detector is a strategy that determines if a process is running.
// Implementations may check a PID file, a PID number, a command probe,
// or a command-line pattern scan. It must be safe for concurrent use.
type Detector interface {
	// Alive returns true if the process is detected as running.
	Alive() (bool, error)
	// Describe returns a human-readable description of the detection method.
	Describe() string
}
