package model

import "time"

// SendRecord is one entry in the send-history log. Every /sendmail
// attempt produces a record, successful or not.
type SendRecord struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	FromEmail string    `db:"from_email"`
	ToEmail   string    `db:"to_email"`
	Subject   string    `db:"subject"`
	OK        bool      `db:"ok"`
	Detail    string    `db:"detail"`
	CreatedAt time.Time `db:"created_at"`
}
