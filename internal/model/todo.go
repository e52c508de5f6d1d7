package model

// Todo is the canonical client-side shape of a todo entry.
// Every server variant is coerced into this by the normalize package.
type Todo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"createdAt"`
}

// NewTodo is the payload for creating a todo.
type NewTodo struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// TodoPatch carries the fields of a partial update. Nil fields are not sent.
type TodoPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// User is the authenticated account as returned by the auth endpoints.
type User struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name"`
	Email string `json:"email" validate:"required,email"`
}

// AuthResult is the {token, user} pair returned by signup, login and reset.
type AuthResult struct {
	Token string `json:"token" validate:"required"`
	User  User   `json:"user" validate:"required"`
}

// ForgotResult is either a reset token (dev/test servers) or a plain
// confirmation message.
type ForgotResult struct {
	ResetToken string `json:"resetToken,omitempty"`
	ExpiresAt  string `json:"expiresAt,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (r ForgotResult) HasResetToken() bool { return r.ResetToken != "" }
