// Package models contains data models for the case-management service.
package models

// User represents a staff account that can sign in to the system.
type User struct {
	ID       int64  `json:"id_usuario" gorm:"column:id_usuario;primaryKey;autoIncrement"`
	Name     string `json:"nome" gorm:"column:nome;not null"`
	Login    string `json:"login" gorm:"column:login;uniqueIndex;not null;size:150"`
	Password string `json:"-" gorm:"column:senha;not null"`
	Role     Role   `json:"perfil" gorm:"column:perfil;not null;size:50"`
}

// TableName returns the database table name for the User model.
func (User) TableName() string {
	return "usuario"
}

// UserSummary is the public projection of a user, without the password hash.
type UserSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
	Role Role   `json:"perfil"`
}

// Summary returns the public projection of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Role: u.Role}
}
