package dto

// Data Transfer Objects for the confirmation-code signup and token exchange

// SignupRequest: payload for requesting a confirmation code
type SignupRequest struct {
	Username string `json:"username" binding:"required,max=40"`
	Email    string `json:"email" binding:"required,email,max=254"`
}

// SignupResponse: echoes the accepted username/email pair
type SignupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenRequest: payload for exchanging a confirmation code for a token
type TokenRequest struct {
	Username         string `json:"username" binding:"required,max=40"`
	ConfirmationCode string `json:"confirmation_code" binding:"required,max=10"`
}

// TokenResponse: bearer token issued on a matching code
type TokenResponse struct {
	Token string `json:"token"`
}
