package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin        = "admin"
	RoleMedico       = "medico"
	RoleFarmaceutico = "farmaceutico"
)

// User representa un usuario del personal de la clínica.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, medico, farmaceutico
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
