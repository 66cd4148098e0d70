package types

const ContextUserKey = "user"

// Task workflow states. Transitions are unrestricted; todo is the initial
// state and done can be reopened.
const (
	StatusTodo       = "todo"
	StatusInProgress = "inprogress"
	StatusDone       = "done"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func ValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
