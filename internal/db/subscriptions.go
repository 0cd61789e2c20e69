package db

import (
	"github.com/rs/zerolog/log"

	"github.com/Lumina-Screens/lumina/internal/model"
)

func (s *pgStore) GetSubscription(ownerID int) (model.Subscription, error) {
	var sub model.Subscription
	const q = `SELECT owner_id, max_screens, used_screens, updated_at FROM subscriptions WHERE owner_id = $1;`
	err := s.db.Get(&sub, q, ownerID)
	return sub, err
}

func (s *pgStore) ListSubscriptions() ([]model.Subscription, error) {
	var out []model.Subscription
	const q = `SELECT owner_id, max_screens, used_screens, updated_at FROM subscriptions ORDER BY owner_id;`
	err := s.db.Select(&out, q)
	return out, err
}

func (s *pgStore) SaveSubscription(ownerID, maxScreens, usedScreens int) error {
	_, err := s.db.Exec(`
		INSERT INTO subscriptions (owner_id, max_screens, used_screens, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (owner_id) DO UPDATE
		   SET max_screens = EXCLUDED.max_screens,
		       used_screens = EXCLUDED.used_screens,
		       updated_at = now();`,
		ownerID, maxScreens, usedScreens,
	)
	if err != nil {
		log.Error().Err(err).Int("owner_id", ownerID).Msg("[db] SaveSubscription failed")
	}
	return err
}
