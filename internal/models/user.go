package models

// Role mirrors the role_id values of the identity master data.
type Role int

const (
	RoleAdmin   Role = 1
	RoleTeacher Role = 2
	RoleStudent Role = 3
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleTeacher:
		return "teacher"
	case RoleStudent:
		return "student"
	}
	return "unknown"
}

type User struct {
	UserID   uint   `json:"userId" gorm:"column:user_id;primaryKey"`
	UserName string `json:"userName" gorm:"column:user_name;uniqueIndex;not null;size:100"`
	FullName string `json:"fullName" gorm:"column:full_name;not null;size:200"`
	Email    string `json:"email" gorm:"column:email;size:255"`
	RoleID   Role   `json:"roleId" gorm:"column:role_id;not null"`
}

func (User) TableName() string {
	return "users"
}
