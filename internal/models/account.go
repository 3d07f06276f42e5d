package models

import (
	"time"
)

// Account is the owner of templates. Registration and sign-in happen in a
// separate system; this backend only reads account records to scope data
// and to fill sender details into outgoing messages.
type Account struct {
	Base      `bson:",inline"`
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name" json:"name"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
