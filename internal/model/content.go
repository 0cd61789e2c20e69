package model

import "time"

// Content is a reference to an uploaded media asset. Upload and storage live
// behind an external service; only the stable URL and type are kept here.
type Content struct {
	ID        int       `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Type      string    `db:"type"       json:"type"` // image | video | document
	URL       string    `db:"url"        json:"url"`
	CreatedBy int       `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
