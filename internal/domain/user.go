package domain

import (
	"time"

	"github.com/google/uuid"
)

// User — пользователь, которым управляют actions users.*.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
