package models

import "time"

// BlacklistEntry блокирует пользователю подачу новых жалоб.
type BlacklistEntry struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
