package updater

// State is a step of an update run.
type State int

const (
	Idle State = iota
	WaitingForLock
	Extracting
	Succeeded
	Failed
	RelaunchRequested
	Done
)

var stateNames = [...]string{
	Idle:              "idle",
	WaitingForLock:    "waiting-for-lock",
	Extracting:        "extracting",
	Succeeded:         "succeeded",
	Failed:            "failed",
	RelaunchRequested: "relaunch-requested",
	Done:              "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
