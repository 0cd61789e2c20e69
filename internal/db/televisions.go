package db

import (
	"database/sql"

	"github.com/rs/zerolog/log"

	"github.com/Lumina-Screens/lumina/internal/model"
)

const tvColumns = `id, device_id, name, location, paired, online, created_by, created_at, updated_at`

func (s *pgStore) CreateTelevision(name string, location *string, createdBy int) (model.Television, error) {
	var tv model.Television
	const q = `
	INSERT INTO televisions (name, location, paired, online, created_by, created_at, updated_at)
	VALUES ($1, $2, false, false, $3, now(), now())
	RETURNING ` + tvColumns + `;`
	if err := s.db.Get(&tv, q, name, location, createdBy); err != nil {
		log.Error().Err(err).Msg("[db] CreateTelevision: insert failed")
		return model.Television{}, err
	}
	return tv, nil
}

func (s *pgStore) GetTelevisionByID(id int) (model.Television, error) {
	var tv model.Television
	err := s.db.Get(&tv, `SELECT `+tvColumns+` FROM televisions WHERE id = $1;`, id)
	return tv, err
}

func (s *pgStore) GetTelevisionByDeviceID(deviceID string) (model.Television, error) {
	var tv model.Television
	err := s.db.Get(&tv, `SELECT `+tvColumns+` FROM televisions WHERE device_id = $1;`, deviceID)
	return tv, err
}

func (s *pgStore) ListTelevisions(ownerID int) ([]model.Television, error) {
	var out []model.Television
	const q = `SELECT ` + tvColumns + ` FROM televisions WHERE created_by = $1 ORDER BY id;`
	if err := s.db.Select(&out, q, ownerID); err != nil {
		log.Error().Err(err).Msg("[db] ListTelevisions: select failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) UpdateTelevision(id int, name, location *string) error {
	_, err := s.db.Exec(`
		UPDATE televisions
		   SET name       = COALESCE($2, name),
		       location   = COALESCE($3, location),
		       updated_at = now()
		 WHERE id = $1;`,
		id, name, location,
	)
	if err != nil {
		log.Error().Err(err).Int("tv_id", id).Msg("[db] UpdateTelevision failed")
	}
	return err
}

func (s *pgStore) DeleteTelevision(id int) error {
	_, err := s.db.Exec(`DELETE FROM televisions WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("tv_id", id).Msg("[db] DeleteTelevision failed")
	}
	return err
}

func (s *pgStore) PairTelevision(id int, deviceID string) error {
	res, err := s.db.Exec(`
		UPDATE televisions
		   SET device_id = $2, paired = true, updated_at = now()
		 WHERE id = $1;`,
		id, deviceID,
	)
	if err != nil {
		log.Error().Err(err).Int("tv_id", id).Msg("[db] PairTelevision failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *pgStore) UnpairTelevision(id int) error {
	res, err := s.db.Exec(`
		UPDATE televisions
		   SET device_id = NULL, paired = false, online = false, updated_at = now()
		 WHERE id = $1;`,
		id,
	)
	if err != nil {
		log.Error().Err(err).Int("tv_id", id).Msg("[db] UnpairTelevision failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *pgStore) SetTelevisionOnline(id int, online bool) error {
	_, err := s.db.Exec(`
		UPDATE televisions SET online = $2, updated_at = now() WHERE id = $1;`,
		id, online,
	)
	if err != nil {
		log.Error().Err(err).Int("tv_id", id).Bool("online", online).Msg("[db] SetTelevisionOnline failed")
	}
	return err
}

func (s *pgStore) UpsertAssignment(tvID, playlistID int, active, current bool) error {
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

	if current {
		if _, err = tx.Exec(`
			UPDATE tv_playlists SET current = false
			 WHERE tv_id = $1 AND playlist_id <> $2;`,
			tvID, playlistID,
		); err != nil {
			return err
		}
	}
	if active {
		// at most one active row per television, enforced here as well as in
		// the registry so a crash between the two writes cannot double up
		if _, err = tx.Exec(`
			UPDATE tv_playlists SET active = false
			 WHERE tv_id = $1 AND playlist_id <> $2;`,
			tvID, playlistID,
		); err != nil {
			return err
		}
	}
	_, err = tx.Exec(`
		INSERT INTO tv_playlists (tv_id, playlist_id, active, current, assigned_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (tv_id, playlist_id) DO UPDATE
		   SET active = EXCLUDED.active, current = EXCLUDED.current;`,
		tvID, playlistID, active, current,
	)
	return err
}

func (s *pgStore) ClearAssignments(tvID int) error {
	_, err := s.db.Exec(`DELETE FROM tv_playlists WHERE tv_id = $1;`, tvID)
	if err != nil {
		log.Error().Err(err).Int("tv_id", tvID).Msg("[db] ClearAssignments failed")
	}
	return err
}

func (s *pgStore) ListAssignmentsForTV(tvID int) ([]model.TVPlaylist, error) {
	var out []model.TVPlaylist
	const q = `
	SELECT id, tv_id, playlist_id, active, current, assigned_at
	  FROM tv_playlists
	 WHERE tv_id = $1
	 ORDER BY assigned_at;`
	err := s.db.Select(&out, q, tvID)
	return out, err
}

func (s *pgStore) ListAssignments() ([]model.TVPlaylist, error) {
	var out []model.TVPlaylist
	const q = `SELECT id, tv_id, playlist_id, active, current, assigned_at FROM tv_playlists ORDER BY tv_id, assigned_at;`
	err := s.db.Select(&out, q)
	return out, err
}

// GetTVsUsingPlaylist derives the inverse playlist->televisions mapping; it is
// never stored independently.
func (s *pgStore) GetTVsUsingPlaylist(playlistID int) ([]model.Television, error) {
	var out []model.Television
	const q = `
	SELECT t.id, t.device_id, t.name, t.location, t.paired, t.online, t.created_by, t.created_at, t.updated_at
	  FROM televisions t
	  JOIN tv_playlists tp ON tp.tv_id = t.id
	 WHERE tp.playlist_id = $1
	   AND tp.current = true;`
	if err := s.db.Select(&out, q, playlistID); err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Msg("[db] GetTVsUsingPlaylist failed")
		return nil, err
	}
	return out, nil
}
