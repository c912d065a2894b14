package domain

import (
	"strings"
	"time"
)

const (
	// AdminEmail is the reserved address that carries the admin flag.
	AdminEmail = "admin@xcar.com"
	// AdminPassword is the well-known admin password used while offline.
	AdminPassword = "123456789"
)

// IsAdminEmail reports whether email is exactly the reserved admin address,
// ignoring surrounding whitespace.
func IsAdminEmail(email string) bool {
	return strings.TrimSpace(email) == AdminEmail
}

// User is a registered account as stored by the API.
type User struct {
	ID           string    `json:"id" bson:"-"`
	FirstName    string    `json:"firstName" bson:"firstName"`
	LastName     string    `json:"lastName" bson:"lastName"`
	Email        string    `json:"email" bson:"email"`
	Phone        string    `json:"phone" bson:"phone"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	IsAdmin      bool      `json:"isAdmin" bson:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// Session is the signed-in user as held by the client. It never carries a
// password.
type Session struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	IsAdmin   bool   `json:"isAdmin"`
	Token     string `json:"token,omitempty"`
}

// Registration is the payload accepted by the register endpoint.
type Registration struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

// Validate checks required fields and the email format.
func (r Registration) Validate() error {
	return validate.Struct(r)
}

// DemoUser is an account registered while the API was unreachable. It lives
// only in the local store.
type DemoUser struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	IsAdmin   bool   `json:"isAdmin"`
}

// Session returns the user's session view.
func (u DemoUser) Session() Session {
	return Session{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		IsAdmin:   u.IsAdmin,
	}
}
