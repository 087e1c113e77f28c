package dto

// RegisterRequest starts OTP-gated registration.
type RegisterRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// VerifyOTPRequest completes registration with the emailed code.
type VerifyOTPRequest struct {
	Code string `json:"code" form:"code"`
}

// LoginRequest authenticates an existing user.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// AvailabilityRequest toggles the admin online indicator.
type AvailabilityRequest struct {
	Available bool `json:"available" form:"available"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID                   string `json:"id"`
	Email                string `json:"email"`
	IsAdmin              bool   `json:"is_admin"`
	NewsletterSubscribed bool   `json:"newsletter_subscribed"`
}
