package packets

// REQUESTS FOR /api/tv

type RegisterPairingCodeRequest struct {
	PairingCode string `json:"code" binding:"required"`
	DeviceID    string `json:"device_id" binding:"required"`
}

// RESPONSES FOR /api/tv

type RegisterPairingCodeResponse struct {
	DeviceID string `json:"device_id"`
}

// StateItem is one reel entry as the device renders it.
type StateItem struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	Duration int    `json:"duration"`
}

// StateSchedule mirrors the playlist schedule for the device.
type StateSchedule struct {
	DaysOfWeek []int64 `json:"days_of_week"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
}

// StateResponse is the single source of truth a television renders from.
// Push events never carry this; the device pulls it on every notification.
type StateResponse struct {
	TVID               int            `json:"tv_id"`
	AssignedPlaylistID *int           `json:"assigned_playlist_id"`
	PlaylistName       string         `json:"playlist_name,omitempty"`
	IsActive           bool           `json:"is_active"`
	Items              []StateItem    `json:"items"`
	Schedule           *StateSchedule `json:"schedule,omitempty"`
}
