package types

import "time"

type UserRole string

const (
	UserRoleDataCollector UserRole = "data_collector"
	UserRoleAdmin         UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == UserRoleDataCollector || r == UserRoleAdmin
}

type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusRejected UserStatus = "rejected"
)

type User struct {
	ID               string     `db:"id" json:"id"`
	Email            *string    `db:"email" json:"email"`
	Name             string     `db:"name" json:"name"`
	Role             UserRole   `db:"role" json:"role"`
	Status           UserStatus `db:"status" json:"status"`
	Points           int        `db:"points" json:"points"`
	SurveysCompleted int        `db:"surveys_completed" json:"surveys_completed"`
	LastLogin        *time.Time `db:"last_login" json:"last_login"`
	ApprovedBy       *string    `db:"approved_by" json:"approved_by"`
	ApprovedAt       *time.Time `db:"approved_at" json:"approved_at"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

type UserStats struct {
	Points           int `db:"points" json:"points"`
	SurveysCompleted int `db:"surveys_completed" json:"surveys_completed"`
}
