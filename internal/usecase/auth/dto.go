package auth

// LoginRequest represents the credential form submitted at login.
type LoginRequest struct {
	Username string `validate:"required,max=150"`
	Password string `validate:"required"`
}

// RegisterRequest represents the account-creation form.
type RegisterRequest struct {
	FirstName string `validate:"required,max=150"`
	LastName  string `validate:"required,max=150"`
	Username  string `validate:"required,max=150"`
	Email     string `validate:"required,email"`
	Password1 string `validate:"required"`
	Password2 string `validate:"required"`
}
