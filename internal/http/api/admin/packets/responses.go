package packets

import "time"

type TokenResponse struct {
	Token string `json:"token"`
}

type ProfileResponse struct {
	ID    int     `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
}

type ContentResponse struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
}

type ScheduleResponse struct {
	DaysOfWeek []int64    `json:"days_of_week"`
	StartTime  string     `json:"start_time"`
	EndTime    string     `json:"end_time"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

type PlaylistItemResponse struct {
	ID        int       `json:"id"`
	ContentID int       `json:"content_id"`
	Position  int       `json:"position"`
	Duration  int       `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

type PlaylistResponse struct {
	ID          int                    `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Active      bool                   `json:"active"`
	Playable    bool                   `json:"playable"`
	CreatedBy   int                    `json:"created_by"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	Items       []PlaylistItemResponse `json:"items"`
	Schedule    *ScheduleResponse      `json:"schedule,omitempty"`
}

type TelevisionResponse struct {
	ID             int     `json:"id"`
	DeviceID       *string `json:"device_id"`
	Name           string  `json:"name"`
	Location       *string `json:"location"`
	Paired         bool    `json:"paired"`
	Online         bool    `json:"online"`
	PlaylistID     *int    `json:"playlist_id,omitempty"`
	PlaylistActive bool    `json:"playlist_active"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

type SubscriptionResponse struct {
	MaxScreens  int `json:"max_screens"`
	UsedScreens int `json:"used_screens"`
}
