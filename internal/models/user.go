package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleMedidor Role = "medidor"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMedidor
}

type User struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"uid"`
	Email                 string             `bson:"email" json:"email"`
	DisplayName           string             `bson:"displayName,omitempty" json:"displayName,omitempty"`
	Password              string             `bson:"password" json:"-"` // Hide from JSON responses
	Role                  Role               `bson:"role" json:"role"`
	EmailVerified         bool               `bson:"emailVerified" json:"emailVerified"`
	VerificationToken     string             `bson:"verificationToken,omitempty" json:"-"`
	VerificationExpiresAt time.Time          `bson:"verificationExpiresAt,omitempty" json:"-"`
	PhotoURL              string             `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	CreatedAt             time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Name is what other users see: the display name, or the email when none was set.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}
