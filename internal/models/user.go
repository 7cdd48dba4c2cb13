package models

import "github.com/google/uuid"

const (
	TeacherRole = "teacher"
	StudentRole = "student"
)

type User struct {
	ID       uuid.UUID
	Username string
	Password string
	Email    string
	Roles    []string
}

func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
