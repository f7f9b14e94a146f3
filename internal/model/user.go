package model

import "time"

// Role values stored in the users.role column.  Only two roles exist:
// regular users who reserve spots and administrators who manage lots.
const (
    RoleUser  = "user"
    RoleAdmin = "admin"
)

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column in the database.  Handlers
// define separate response types with JSON tags where needed.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Phone        – optional contact number.
//  Role         – either "user" or "admin".
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    // users.id
    Username     string    // users.username
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Phone        string    // users.phone
    Role         string    // users.role
    CreatedAt    time.Time // users.created_at
}
