package entity

// Phase is the controller's lifecycle state.
type Phase string

const (
	PhaseAwaitingSetup Phase = "awaiting_setup"
	PhaseStarting      Phase = "starting"
	PhaseActive        Phase = "active"
	PhaseTerminal      Phase = "terminal"
	PhaseErrorPaused   Phase = "error_paused"
)

// Snapshot is a read-only copy of everything the renderers and transports need.
type Snapshot struct {
	Phase      Phase              `json:"phase"`
	Session    *Session           `json:"session,omitempty"`
	Game       GameState          `json:"game"`
	Stats      Stats              `json:"stats,omitempty"`
	Error      string             `json:"error,omitempty"`
	Loading    bool               `json:"loading"`
	KeysStatus map[AgentKind]bool `json:"keys_status,omitempty"`
}

// IsStarted - true once a session exists, until the next reset.
func (that Snapshot) IsStarted() bool {
	return that.Session != nil
}
