package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleCoach   Role = "coach"
	RoleStudent Role = "student"
)

// User is a row of the users collection. It carries both the public profile
// (name, avatar, phone) and the auth identity (email, password hash, metadata).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"` // unique
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	AvatarURL    string             `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	PasswordHash string             `bson:"password_hash" json:"-"` // never exposed
	Role         Role               `bson:"role" json:"role"`

	// Metadata mirrors the auth identity's user metadata (e.g. avatar_url).
	Metadata map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}
