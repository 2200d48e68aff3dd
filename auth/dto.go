// Package auth provides registration, login and request authentication.
// This file defines the request and response payloads for the auth endpoints.
package auth

// RegisterRequest is the payload for POST /users/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned on successful registration or login: the user
// record together with a bearer token for subsequent requests.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
