package domain

import "time"

type User struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string // argon2id PHC string
	SecurityStamp string // rotated whenever credentials change
	Roles         []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
