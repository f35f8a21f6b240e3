package model

import "time"

// Booker is an account that can authenticate and make bookings.  The
// email is stored normalized (trimmed, lower case) and is unique.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique email address.
//  PasswordHash – bcrypt hash of the password.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Booker struct {
    ID           uint64    // bookers.id
    Email        string    // bookers.email
    PasswordHash string    // bookers.password_hash
    CreatedAt    time.Time // bookers.created_at
    UpdatedAt    time.Time // bookers.updated_at
}
