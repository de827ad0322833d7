package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// CustomData is an opaque payload carried with every user.
type CustomData struct {
	Random int32 `json:"random"`
}

type User struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	BirthDate  civil.Date `json:"birth_date"`
	CustomData CustomData `json:"custom_data"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// CreateUser is the client-supplied part of a User. The server assigns id
// and timestamps; any such fields in a request body are dropped on decode.
type CreateUser struct {
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	BirthDate  civil.Date `json:"birth_date"`
	CustomData CustomData `json:"custom_data"`
}

// User builds the entity a repository persists on create.
func (c CreateUser) User(id uuid.UUID, createdAt time.Time) User {
	return User{
		ID:         id,
		Email:      c.Email,
		Name:       c.Name,
		BirthDate:  c.BirthDate,
		CustomData: c.CustomData,
		CreatedAt:  createdAt,
	}
}

// Clone returns a copy that shares no memory with u.
func (u User) Clone() User {
	if u.UpdatedAt != nil {
		t := *u.UpdatedAt
		u.UpdatedAt = &t
	}
	return u
}
