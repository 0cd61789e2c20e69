// Package db owns persistence. Store is the single facade handed to the
// services and HTTP controllers; pgStore backs it with PostgreSQL and
// MemStore backs it with maps for tests.
package db

import (
	"github.com/jmoiron/sqlx"

	"github.com/Lumina-Screens/lumina/internal/model"
)

type Store interface {
	// users
	CreateUser(email, hashedPassword string, name *string) (int, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)

	// content references (media upload lives elsewhere; we keep the URL)
	CreateContent(name, contentType, url string, createdBy int) (model.Content, error)
	GetContentByID(id int) (model.Content, error)
	ListContent(ownerID int) ([]model.Content, error)
	DeleteContent(id int) error

	// playlists
	CreatePlaylist(name string, description *string, createdBy int) (model.Playlist, error)
	GetPlaylistByID(id int) (model.Playlist, error)
	ListPlaylists(ownerID int) ([]model.Playlist, error)
	UpdatePlaylist(id int, name, description *string) error
	DeletePlaylist(id int) error
	SetPlaylistActive(id int, active bool) error

	// playlist items; positions are dense 1..N, the playlist service repacks
	AddPlaylistItem(playlistID, contentID, position, duration int) (model.PlaylistItem, error)
	UpdatePlaylistItemDuration(itemID, duration int) error
	RemovePlaylistItem(itemID int) error
	ListPlaylistItems(playlistID int) ([]model.PlaylistItem, error)
	SetPlaylistItemPositions(playlistID int, orderedIDs []int) error

	// schedule is owned 1:1 by its playlist; nil clears it
	SetPlaylistSchedule(playlistID int, s *model.Schedule) error
	GetPlaylistSchedule(playlistID int) (*model.Schedule, error)

	// televisions
	CreateTelevision(name string, location *string, createdBy int) (model.Television, error)
	GetTelevisionByID(id int) (model.Television, error)
	GetTelevisionByDeviceID(deviceID string) (model.Television, error)
	ListTelevisions(ownerID int) ([]model.Television, error)
	UpdateTelevision(id int, name, location *string) error
	DeleteTelevision(id int) error
	PairTelevision(id int, deviceID string) error
	UnpairTelevision(id int) error
	SetTelevisionOnline(id int, online bool) error

	// assignment rows; state transitions live in the assignment registry
	UpsertAssignment(tvID, playlistID int, active, current bool) error
	ClearAssignments(tvID int) error
	ListAssignmentsForTV(tvID int) ([]model.TVPlaylist, error)
	ListAssignments() ([]model.TVPlaylist, error)
	GetTVsUsingPlaylist(playlistID int) ([]model.Television, error)

	// subscriptions
	GetSubscription(ownerID int) (model.Subscription, error)
	ListSubscriptions() ([]model.Subscription, error)
	SaveSubscription(ownerID, maxScreens, usedScreens int) error
}

type pgStore struct {
	db *sqlx.DB
}

var _ Store = (*pgStore)(nil)

func NewStore(conn *sqlx.DB) Store {
	return &pgStore{db: conn}
}
