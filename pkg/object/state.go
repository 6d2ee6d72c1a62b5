package object

// State is the outcome of the existence probe. It folds the persisted
// lifecycle integer together with the presence of the final file on disk.
type State int

const (
	// StateAbsent means no metadata row exists.
	StateAbsent State = iota

	// StatePresent means the row is closed and the final file exists.
	StatePresent

	// StateInit means an upload was initialized but no bytes are visible.
	StateInit

	// StateStaged means the staging file was written but not yet renamed.
	StateStaged

	// StateLost means the row claims closed but the final file is missing.
	// This is corruption or drift and is surfaced, not repaired.
	StateLost
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePresent:
		return "present"
	case StateInit:
		return "init"
	case StateStaged:
		return "staged"
	case StateLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Persisted lifecycle codes stored in the state column. The sum type above
// is the API; these integers are a serialisation detail.
const (
	lifecycleClosed = 0
	lifecycleInit   = 1
	lifecycleStaged = 2
)
