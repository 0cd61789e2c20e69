package model

import "time"

// Subscription tracks purchased screen capacity for one owner. UsedScreens
// counts currently paired televisions and may never exceed MaxScreens.
type Subscription struct {
	OwnerID     int       `db:"owner_id"    json:"owner_id"`
	MaxScreens  int       `db:"max_screens" json:"max_screens"`
	UsedScreens int       `db:"used_screens" json:"used_screens"`
	UpdatedAt   time.Time `db:"updated_at"  json:"updated_at"`
}
