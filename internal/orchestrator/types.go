package orchestrator

// Status values used across Result and ProbeResult.
const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusInProgress = "in-progress"
)

// Result is the outcome of one bootstrap run. It never carries the password.
type Result struct {
	Status   string `json:"status"` // "ok", "error"
	Database string `json:"database"`
	User     string `json:"user"`
	Role     string `json:"role"`
	Kind     string `json:"kind,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ProbeResult is returned by RunDeepHealth for each dependency.
type ProbeResult struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}
