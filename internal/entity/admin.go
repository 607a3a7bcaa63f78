package entity

type Admin struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

/*
Schema:

CREATE TABLE admins (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username VARCHAR(80) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL
);
*/
