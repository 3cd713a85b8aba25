package entity

import "time"

// User is a credential record. Role is fixed at creation.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated actor passed explicitly into every workflow operation
type Identity struct {
	UserID int64  `json:"user_id"`
	Role   Role   `json:"role"`
	Name   string `json:"name"`
}

// Identity returns the identity view of a user
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Role: u.Role, Name: u.Name}
}

// IsAdmin reports whether the identity has the admin role
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// IsTrainer reports whether the identity has the trainer role
func (i Identity) IsTrainer() bool { return i.Role == RoleTrainer }

// IsClient reports whether the identity has the client role
func (i Identity) IsClient() bool { return i.Role == RoleClient }
