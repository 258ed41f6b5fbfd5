package dto

// LoginRequest carries staff credentials
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

// StaffDTO represents a staff account in responses
type StaffDTO struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResponse returns the token pair for an authenticated staff account
type LoginResponse struct {
	Message      string   `json:"message"`
	Staff        StaffDTO `json:"staff"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
}
