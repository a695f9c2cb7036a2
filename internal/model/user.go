package model

import "time"

// Auth providers.
const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

type User struct {
	ID                int       `json:"id"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	Name              string    `json:"name"`
	AvatarURL         string    `json:"avatar_url"`
	Provider          string    `json:"provider"`
	Confirmed         bool      `json:"confirmed"`
	ConfirmationToken string    `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
}
