package session

// State is the player lifecycle position.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateStarting
	StatePlaying
	StatePaused
	StateCompleted
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateStarting:
		return "starting"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// active reports whether a load or playback is in progress.
func (s State) active() bool {
	switch s {
	case StateLoading, StateStarting, StatePlaying, StatePaused:
		return true
	}
	return false
}
