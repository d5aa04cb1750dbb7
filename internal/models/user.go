package models

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleTeamLead Role = "team_lead"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is one of the defined roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeamLead, RoleEmployee:
		return true
	}
	return false
}

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'employee'" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	AssignedTasks []Task `gorm:"foreignKey:AssignedTo" json:"-"`
	CreatedTasks  []Task `gorm:"foreignKey:CreatedBy" json:"-"`
}
