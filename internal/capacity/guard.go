// Package capacity ties the number of paired televisions to the owner's
// purchased screen quantity. All counter changes go through the guard; no
// other component touches used-screen counts directly.
package capacity

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Lumina-Screens/lumina/internal/core"
	"github.com/Lumina-Screens/lumina/internal/model"
)

// Store is the persistence the guard writes through to.
type Store interface {
	GetSubscription(ownerID int) (model.Subscription, error)
	ListSubscriptions() ([]model.Subscription, error)
	SaveSubscription(ownerID, maxScreens, usedScreens int) error
}

// DefaultMaxScreens applies to owners that never purchased add-ons.
const DefaultMaxScreens = 1

type usage struct {
	max  int
	used int
}

// Guard keeps per-owner counters under one lock so a pairing check and its
// increment are a single atomic step: there is no window where a television
// exists without being counted, or the reverse.
type Guard struct {
	store Store

	mu     sync.Mutex
	owners map[int]*usage
}

func NewGuard(store Store) *Guard {
	return &Guard{store: store, owners: map[int]*usage{}}
}

// Load seeds counters from persisted subscriptions.
func (g *Guard) Load() error {
	subs, err := g.store.ListSubscriptions()
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range subs {
		g.owners[s.OwnerID] = &usage{max: s.MaxScreens, used: s.UsedScreens}
	}
	return nil
}

func (g *Guard) ownerLocked(ownerID int) *usage {
	u, ok := g.owners[ownerID]
	if !ok {
		u = &usage{max: DefaultMaxScreens}
		if sub, err := g.store.GetSubscription(ownerID); err == nil {
			u.max, u.used = sub.MaxScreens, sub.UsedScreens
		} else if !errors.Is(err, sql.ErrNoRows) {
			log.Warn().Err(err).Int("owner_id", ownerID).Msg("[capacity] subscription lookup failed, using defaults")
		}
		g.owners[ownerID] = u
	}
	return u
}

// Usage reports the owner's current used/max counters.
func (g *Guard) Usage(ownerID int) (used, max int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	u := g.ownerLocked(ownerID)
	return u.used, u.max
}

// CanAddDevice reports whether the owner has a free screen slot.
func (g *Guard) CanAddDevice(ownerID int) bool {
	used, max := g.Usage(ownerID)
	return used < max
}

// CanReduceCapacity reports whether the owner could drop to newMax without
// first removing televisions. The guard only answers the boolean; selecting
// which televisions to remove is the caller's problem.
func (g *Guard) CanReduceCapacity(ownerID, newMax int) bool {
	used, _ := g.Usage(ownerID)
	return used <= newMax
}

// OnDevicePaired checks capacity and claims a slot in one atomic step. The
// returned error carries current usage so the UI can explain the denial
// without another round-trip.
func (g *Guard) OnDevicePaired(ownerID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	u := g.ownerLocked(ownerID)
	if u.used >= u.max {
		return core.Violationf("all %d purchased screens are in use; remove a television or increase the subscription", u.max).
			With("used_screens", u.used).
			With("max_screens", u.max)
	}
	u.used++
	g.persistLocked(ownerID, u)
	return nil
}

// OnDeviceRemoved releases the slot held by an unpaired television.
func (g *Guard) OnDeviceRemoved(ownerID int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	u := g.ownerLocked(ownerID)
	if u.used == 0 {
		log.Warn().Int("owner_id", ownerID).Msg("[capacity] device removed with zero used screens")
		return
	}
	u.used--
	g.persistLocked(ownerID, u)
}

// ApplyQuantity consumes a subscription change from billing. Reductions below
// the current device count are rejected until the owner removes televisions.
func (g *Guard) ApplyQuantity(ownerID, newMax int) error {
	if newMax < 0 {
		return core.Invalidf("screen quantity %d must not be negative", newMax)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	u := g.ownerLocked(ownerID)
	if u.used > newMax {
		return core.Violationf("%d televisions are paired but the new subscription covers only %d; remove %d first",
			u.used, newMax, u.used-newMax).
			With("used_screens", u.used).
			With("max_screens", u.max).
			With("requested_max", newMax)
	}
	u.max = newMax
	g.persistLocked(ownerID, u)
	return nil
}

func (g *Guard) persistLocked(ownerID int, u *usage) {
	if err := g.store.SaveSubscription(ownerID, u.max, u.used); err != nil {
		log.Error().Err(err).Int("owner_id", ownerID).Msg("[capacity] failed to persist subscription counters")
	}
}
