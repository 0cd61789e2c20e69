package db

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Lumina-Screens/lumina/internal/model"
)

func (s *pgStore) CreatePlaylist(name string, description *string, createdBy int) (model.Playlist, error) {
	var p model.Playlist
	const q = `
	INSERT INTO playlists (name, description, active, created_by, created_at, updated_at)
	VALUES ($1, $2, false, $3, now(), now())
	RETURNING id, name, description, active, created_by, created_at, updated_at;`
	if err := s.db.Get(&p, q, name, description, createdBy); err != nil {
		log.Error().Err(err).Msg("[db] CreatePlaylist: insert failed")
		return model.Playlist{}, err
	}
	return p, nil
}

func (s *pgStore) GetPlaylistByID(id int) (model.Playlist, error) {
	var p model.Playlist
	const q = `
	SELECT id, name, description, active, created_by, created_at, updated_at
	  FROM playlists
	 WHERE id = $1;`
	if err := s.db.Get(&p, q, id); err != nil {
		return model.Playlist{}, err
	}

	items, err := s.ListPlaylistItems(id)
	if err != nil {
		return p, err
	}
	p.Items = items

	sched, err := s.GetPlaylistSchedule(id)
	if err != nil {
		return p, err
	}
	p.Schedule = sched
	return p, nil
}

func (s *pgStore) ListPlaylists(ownerID int) ([]model.Playlist, error) {
	var out []model.Playlist
	const q = `
	SELECT id, name, description, active, created_by, created_at, updated_at
	  FROM playlists
	 WHERE created_by = $1
	 ORDER BY id;`
	if err := s.db.Select(&out, q, ownerID); err != nil {
		log.Error().Err(err).Msg("[db] ListPlaylists: select failed")
		return nil, err
	}
	for i := range out {
		items, err := s.ListPlaylistItems(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
		sched, err := s.GetPlaylistSchedule(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Schedule = sched
	}
	return out, nil
}

func (s *pgStore) UpdatePlaylist(id int, name, description *string) error {
	_, err := s.db.Exec(`
		UPDATE playlists
		   SET name        = COALESCE($2, name),
		       description = COALESCE($3, description),
		       updated_at  = now()
		 WHERE id = $1;`,
		id, name, description,
	)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", id).Msg("[db] UpdatePlaylist failed")
	}
	return err
}

func (s *pgStore) DeletePlaylist(id int) error {
	_, err := s.db.Exec(`DELETE FROM playlists WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", id).Msg("[db] DeletePlaylist failed")
	}
	return err
}

func (s *pgStore) SetPlaylistActive(id int, active bool) error {
	res, err := s.db.Exec(`
		UPDATE playlists SET active = $2, updated_at = now() WHERE id = $1;`,
		id, active,
	)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", id).Msg("[db] SetPlaylistActive failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *pgStore) AddPlaylistItem(playlistID, contentID, position, duration int) (model.PlaylistItem, error) {
	var it model.PlaylistItem
	const q = `
	INSERT INTO playlist_items (playlist_id, content_id, position, duration, created_at)
	VALUES ($1, $2, $3, $4, now())
	RETURNING id, playlist_id, content_id, position, duration, created_at;`
	if err := s.db.Get(&it, q, playlistID, contentID, position, duration); err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Msg("[db] AddPlaylistItem failed")
		return model.PlaylistItem{}, err
	}
	return it, nil
}

func (s *pgStore) UpdatePlaylistItemDuration(itemID, duration int) error {
	res, err := s.db.Exec(`UPDATE playlist_items SET duration = $2 WHERE id = $1;`, itemID, duration)
	if err != nil {
		log.Error().Err(err).Int("item_id", itemID).Msg("[db] UpdatePlaylistItemDuration failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *pgStore) RemovePlaylistItem(itemID int) error {
	_, err := s.db.Exec(`DELETE FROM playlist_items WHERE id = $1;`, itemID)
	if err != nil {
		log.Error().Err(err).Int("item_id", itemID).Msg("[db] RemovePlaylistItem failed")
	}
	return err
}

func (s *pgStore) ListPlaylistItems(playlistID int) ([]model.PlaylistItem, error) {
	var list []model.PlaylistItem
	const q = `
	SELECT id, playlist_id, content_id, position, duration, created_at
	  FROM playlist_items
	 WHERE playlist_id = $1
	 ORDER BY position;`
	if err := s.db.Select(&list, q, playlistID); err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Msg("[db] ListPlaylistItems failed")
		return nil, err
	}
	return list, nil
}

// SetPlaylistItemPositions rewrites positions to 1..N following orderedIDs.
// The bulk shift keeps the (playlist_id, position) unique index happy while
// rows move past each other inside the transaction.
func (s *pgStore) SetPlaylistItemPositions(playlistID int, orderedIDs []int) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	if _, err = tx.Exec(`
		UPDATE playlist_items
		   SET position = position + $1
		 WHERE playlist_id = $2;`,
		len(orderedIDs), playlistID,
	); err != nil {
		return err
	}

	for idx, itemID := range orderedIDs {
		if _, err = tx.Exec(`
			UPDATE playlist_items
			   SET position = $1
			 WHERE id = $2
			   AND playlist_id = $3;`,
			idx+1, itemID, playlistID,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *pgStore) SetPlaylistSchedule(playlistID int, sched *model.Schedule) error {
	if sched == nil {
		_, err := s.db.Exec(`DELETE FROM playlist_schedules WHERE playlist_id = $1;`, playlistID)
		if err != nil {
			log.Error().Err(err).Int("playlist_id", playlistID).Msg("[db] clear schedule failed")
		}
		return err
	}
	_, err := s.db.Exec(`
		INSERT INTO playlist_schedules (playlist_id, days_of_week, start_time, end_time, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (playlist_id) DO UPDATE
		   SET days_of_week = EXCLUDED.days_of_week,
		       start_time   = EXCLUDED.start_time,
		       end_time     = EXCLUDED.end_time,
		       start_date   = EXCLUDED.start_date,
		       end_date     = EXCLUDED.end_date;`,
		playlistID, pq.Int64Array(sched.DaysOfWeek), sched.StartTime, sched.EndTime, sched.StartDate, sched.EndDate,
	)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Msg("[db] SetPlaylistSchedule failed")
	}
	return err
}

func (s *pgStore) GetPlaylistSchedule(playlistID int) (*model.Schedule, error) {
	var sched model.Schedule
	const q = `
	SELECT playlist_id, days_of_week, start_time, end_time, start_date, end_date
	  FROM playlist_schedules
	 WHERE playlist_id = $1;`
	if err := s.db.Get(&sched, q, playlistID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sched, nil
}
