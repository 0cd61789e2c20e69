package model

type User struct {
	ID             int     `db:"id"              json:"id"`
	Email          string  `db:"email"           json:"email"`
	HashedPassword string  `db:"hashed_password" json:"-"`
	Name           *string `db:"name"            json:"name,omitempty"`
}
