package tts

// StateType is the playback state.
type StateType int

const (
	// StateIdle means nothing is being read and the document is editable.
	StateIdle StateType = iota
	// StateSpeaking means a session is being spoken.
	StateSpeaking
	// StatePaused means a session is suspended and can be resumed.
	StatePaused
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpeaking:
		return "speaking"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// State is a point-in-time view of the controller.
type State struct {
	Current       StateType // Current playback state
	Session       SessionID // Active session, 0 when idle
	StartOffset   int       // Offset the session started at
	CurrentOffset int       // Offset of the last spoken unit
	Params        Params    // Parameters for the next session
	Pending       bool      // A parameter change is waiting to be applied
}

// IsActive returns true if a session exists.
func (s State) IsActive() bool {
	return s.Current == StateSpeaking || s.Current == StatePaused
}

// CanPlay returns true if play() starts a new session.
func (s State) CanPlay() bool {
	return s.Current == StateIdle
}

// CanPause returns true if pause() has an effect.
func (s State) CanPause() bool {
	return s.Current == StateSpeaking
}

// CanResume returns true if resume() has an effect.
func (s State) CanResume() bool {
	return s.Current == StatePaused
}

// StateMachine validates playback transitions and runs hooks around them.
type StateMachine struct {
	current     StateType
	transitions map[StateType][]StateType
	onEnter     map[StateType]func()
	onExit      map[StateType]func()
}

// NewStateMachine creates a state machine starting in StateIdle.
//
// Speaking and Paused may transition to themselves: a parameter restart
// replaces the session without leaving the state.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[StateType][]StateType{
			StateIdle:     {StateSpeaking},
			StateSpeaking: {StatePaused, StateIdle, StateSpeaking},
			StatePaused:   {StateSpeaking, StateIdle, StatePaused},
		},
		onEnter: make(map[StateType]func()),
		onExit:  make(map[StateType]func()),
	}
}

// Transition attempts to move to the given state.
func (sm *StateMachine) Transition(to StateType) bool {
	valid := false
	for _, state := range sm.transitions[sm.current] {
		if state == to {
			valid = true
			break
		}
	}
	if !valid {
		return false
	}

	if to != sm.current {
		if exitFn := sm.onExit[sm.current]; exitFn != nil {
			exitFn()
		}
	}

	from := sm.current
	sm.current = to

	if to != from {
		if enterFn := sm.onEnter[to]; enterFn != nil {
			enterFn()
		}
	}

	return true
}

// Can reports whether a transition to the given state is allowed.
func (sm *StateMachine) Can(to StateType) bool {
	for _, state := range sm.transitions[sm.current] {
		if state == to {
			return true
		}
	}
	return false
}

// Current returns the current state.
func (sm *StateMachine) Current() StateType {
	return sm.current
}

// OnEnter registers a callback run when a state is entered from another.
func (sm *StateMachine) OnEnter(state StateType, fn func()) {
	sm.onEnter[state] = fn
}

// OnExit registers a callback run when a state is left for another.
func (sm *StateMachine) OnExit(state StateType, fn func()) {
	sm.onExit[state] = fn
}
