package types

type UserResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TaskCounts is the per-status breakdown shown on a team's dashboard.
type TaskCounts struct {
	Todo       int64 `json:"todo"`
	InProgress int64 `json:"inprogress"`
	Done       int64 `json:"done"`
}
