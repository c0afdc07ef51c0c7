package auth

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterDTO struct {
	Username string `json:"username" validate:"required,min=3,max=100,printascii"`
	Password string `json:"password" validate:"required,min=3,max=72"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	FullName string `json:"full_name" validate:"max=255"`
}
