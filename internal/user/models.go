package user

import "time"

// Role names stored in users.role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. PasswordHash never leaves the service layer in responses.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    *string   `json:"first_name"`
	LastName     *string   `json:"last_name"`
	Username     *string   `json:"username"`
	Phone        *string   `json:"phone"`
	Address      *string   `json:"address"`
	ZipCode      *string   `json:"zip_code"`
	Country      *string   `json:"country"`
	ProfileImage *string   `json:"profile_image"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile holds the optional profile fields. A nil field is left untouched by [Service.UpdateProfile].
type Profile struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Username     *string `json:"username"`
	Phone        *string `json:"phone"`
	Address      *string `json:"address"`
	ZipCode      *string `json:"zip_code"`
	Country      *string `json:"country"`
	ProfileImage *string `json:"profile_image"`
}

// NewUser is the signup request.
type NewUser struct {
	Profile

	Email    string `json:"email"`
	Password string `json:"password"`
}
