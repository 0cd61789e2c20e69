package capacity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lumina-Screens/lumina/internal/core"
	"github.com/Lumina-Screens/lumina/internal/db"
)

func TestDefaultCapacity(t *testing.T) {
	g := NewGuard(db.NewMemStore())
	used, max := g.Usage(7)
	assert.Equal(t, 0, used)
	assert.Equal(t, DefaultMaxScreens, max)
	assert.True(t, g.CanAddDevice(7))
}

func TestPairingClaimsSlots(t *testing.T) {
	store := db.NewMemStore()
	g := NewGuard(store)
	require.NoError(t, g.ApplyQuantity(1, 3))

	for i := 0; i < 3; i++ {
		require.NoError(t, g.OnDevicePaired(1))
	}
	assert.False(t, g.CanAddDevice(1))

	err := g.OnDevicePaired(1)
	require.Error(t, err)
	assert.Equal(t, core.KindInvariant, core.KindOf(err))
	cerr, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 3, cerr.Details["used_screens"])
	assert.Equal(t, 3, cerr.Details["max_screens"])

	// a denied pairing must not have consumed anything
	used, _ := g.Usage(1)
	assert.Equal(t, 3, used)

	g.OnDeviceRemoved(1)
	assert.True(t, g.CanAddDevice(1))
}

func TestRemoveNeverGoesNegative(t *testing.T) {
	g := NewGuard(db.NewMemStore())
	g.OnDeviceRemoved(1)
	used, _ := g.Usage(1)
	assert.Equal(t, 0, used)
}

func TestReductionBlockedByPairedDevices(t *testing.T) {
	g := NewGuard(db.NewMemStore())
	require.NoError(t, g.ApplyQuantity(1, 5))
	for i := 0; i < 5; i++ {
		require.NoError(t, g.OnDevicePaired(1))
	}

	assert.False(t, g.CanReduceCapacity(1, 3))
	err := g.ApplyQuantity(1, 3)
	require.Error(t, err)
	assert.Equal(t, core.KindInvariant, core.KindOf(err))
	cerr, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 5, cerr.Details["used_screens"])
	assert.Equal(t, 3, cerr.Details["requested_max"])

	// the rejected change left the quantity alone
	_, max := g.Usage(1)
	assert.Equal(t, 5, max)

	// removing two devices unblocks the same reduction
	g.OnDeviceRemoved(1)
	g.OnDeviceRemoved(1)
	require.NoError(t, g.ApplyQuantity(1, 3))
}

func TestApplyQuantityValidation(t *testing.T) {
	g := NewGuard(db.NewMemStore())
	err := g.ApplyQuantity(1, -1)
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))

	// zero is a valid quantity for an owner with no devices
	require.NoError(t, g.ApplyQuantity(1, 0))
	assert.False(t, g.CanAddDevice(1))
}

func TestCountersSurviveReload(t *testing.T) {
	store := db.NewMemStore()
	g := NewGuard(store)
	require.NoError(t, g.ApplyQuantity(1, 2))
	require.NoError(t, g.OnDevicePaired(1))

	reloaded := NewGuard(store)
	require.NoError(t, reloaded.Load())
	used, max := reloaded.Usage(1)
	assert.Equal(t, 1, used)
	assert.Equal(t, 2, max)
}
