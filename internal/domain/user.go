package domain

import "time"

const (
	UserStatusActive   = "Activo"
	UserStatusInactive = "Inactivo"
)

type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Status    string     `json:"status"`
	Avatar    string     `json:"avatar,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
