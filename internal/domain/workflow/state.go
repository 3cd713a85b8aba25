package workflow

// State is a closed status enum that a state machine can be built over.
// Each entity (purchase order, training request, invoice) supplies its own.
type State interface {
	comparable
	IsValid() bool
	String() string
}
