package biogas

// State describes a producer's lifecycle. It is owned by the producer and
// observed read-only by control code.
type State int32

const (
	// Idle means the producer was created but never started.
	Idle State = iota
	// Running means the acquisition loop is active.
	Running
	// Reconnecting means the serial link failed and reopen attempts are
	// in progress with backoff.
	Reconnecting
	// Stopping means Stop was called and the loop has not yet exited.
	Stopping
	// Stopped means the loop exited cleanly. The producer may be started
	// again.
	Stopped
	// Failed means the loop gave up after repeated errors; Err carries
	// the terminal reason.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Reconnecting:
		return "reconnecting"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Producer is a background source of Readings. Exactly one producer
// should feed a Buffer at a time; simulated and serial implementations
// are interchangeable behind this interface.
type Producer interface {
	// Start spawns the acquisition loop. It returns ErrAlreadyRunning
	// unless the producer is Idle or Stopped.
	Start() error
	// Stop requests graceful termination and blocks until the loop has
	// exited; no Reading is pushed after Stop returns. It returns
	// ErrNotRunning if the producer was never started.
	Stop() error
	// State reports the current lifecycle state.
	State() State
	// Err returns the terminal reason after Failed, otherwise nil.
	Err() error
}
