package api

// ErrorResponse is the JSON error envelope returned by the task service.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// signInRequest is the password-grant payload for the auth endpoint.
type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is the auth endpoint's view of the current session.
type sessionResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// listTasksResponse is a page of tasks ordered by creation time
// descending, matching the engine's store order.
type listTasksResponse struct {
	Tasks []taskPayload `json:"tasks"`
}

// listUsersResponse holds all assignable users.
type listUsersResponse struct {
	Users []userPayload `json:"users"`
}

// taskPayload is the wire form of a task.
type taskPayload struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Priority     string `json:"priority"`
	Status       string `json:"status"`
	AssignedUser string `json:"assigned_user"`
	DueDate      string `json:"due_date"`
	CreatedAt    string `json:"created_at"`
	OwnerID      string `json:"owner_id"`
}

// userPayload is the wire form of a user record.
type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
