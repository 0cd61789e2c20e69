package db

import (
	"github.com/rs/zerolog/log"

	"github.com/Lumina-Screens/lumina/internal/model"
)

func (s *pgStore) CreateContent(name, contentType, url string, createdBy int) (model.Content, error) {
	var c model.Content
	const q = `
	INSERT INTO content (name, type, url, created_by, created_at)
	VALUES ($1, $2, $3, $4, now())
	RETURNING id, name, type, url, created_by, created_at;`
	if err := s.db.Get(&c, q, name, contentType, url, createdBy); err != nil {
		log.Error().Err(err).Msg("[db] CreateContent: insert failed")
		return model.Content{}, err
	}
	return c, nil
}

func (s *pgStore) GetContentByID(id int) (model.Content, error) {
	var c model.Content
	const q = `SELECT id, name, type, url, created_by, created_at FROM content WHERE id = $1;`
	err := s.db.Get(&c, q, id)
	return c, err
}

func (s *pgStore) ListContent(ownerID int) ([]model.Content, error) {
	var out []model.Content
	const q = `SELECT id, name, type, url, created_by, created_at FROM content WHERE created_by = $1 ORDER BY id;`
	if err := s.db.Select(&out, q, ownerID); err != nil {
		log.Error().Err(err).Msg("[db] ListContent: select failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) DeleteContent(id int) error {
	_, err := s.db.Exec(`DELETE FROM content WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("content_id", id).Msg("[db] DeleteContent failed")
	}
	return err
}
