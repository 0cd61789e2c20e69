package model

import "time"

// Television represents one paired display device. It renders at most one
// playlist at a time; the binding itself lives in tv_playlists rows.
type Television struct {
	ID        int       `db:"id"         json:"id"`
	DeviceID  *string   `db:"device_id"  json:"device_id"`
	Name      string    `db:"name"       json:"name"`
	Location  *string   `db:"location"   json:"location"`
	Paired    bool      `db:"paired"     json:"paired"`
	Online    bool      `db:"online"     json:"online"`
	CreatedBy int       `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TVPlaylist is one television<->playlist binding. At most one row per
// television has Active set; the most recently assigned row is the current
// assignment the device renders from.
type TVPlaylist struct {
	ID         int       `db:"id"          json:"id"`
	TVID       int       `db:"tv_id"       json:"tv_id"`
	PlaylistID int       `db:"playlist_id" json:"playlist_id"`
	Active     bool      `db:"active"      json:"active"`
	Current    bool      `db:"current"     json:"current"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
}
