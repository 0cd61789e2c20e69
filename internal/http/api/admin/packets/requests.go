package packets

import "time"

type SignupRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Name     *string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateContentRequest struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"required,oneof=image video document"`
	URL  string `json:"url"  binding:"required,url"`
}

// SchedulePayload is the wire form of a playlist schedule. Times are
// zero-padded "HH:MM"; dates bound the window by calendar day.
type SchedulePayload struct {
	DaysOfWeek []int64    `json:"days_of_week" binding:"required"`
	StartTime  string     `json:"start_time" binding:"required"`
	EndTime    string     `json:"end_time" binding:"required"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
}

type NewPlaylistItem struct {
	ContentID int `json:"content_id" binding:"required"`
	Duration  int `json:"duration"` // seconds; omitted means the default
}

type CreatePlaylistRequest struct {
	Name        string            `json:"name" binding:"required"`
	Description *string           `json:"description"`
	Items       []NewPlaylistItem `json:"items" binding:"required,min=1,dive"`
	TVID        *int              `json:"tv_id"`
	Schedule    *SchedulePayload  `json:"schedule"`
	Force       bool              `json:"force"`
}

type UpdatePlaylistRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type AddItemsRequest struct {
	Items []NewPlaylistItem `json:"items" binding:"required,min=1,dive"`
}

type ReorderItemsRequest struct {
	ItemIDs []int `json:"item_ids" binding:"required"`
}

type SetDurationRequest struct {
	Duration int `json:"duration" binding:"required"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type UpdateScheduleRequest struct {
	Schedule *SchedulePayload `json:"schedule"` // null clears the schedule
}

type AssignPlaylistRequest struct {
	PlaylistID int  `json:"playlist_id" binding:"required"`
	Force      bool `json:"force"`
}

type CreateTelevisionRequest struct {
	Name     string  `json:"name" binding:"required"`
	Location *string `json:"location"`
}

type UpdateTelevisionRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
}

type PairTelevisionRequest struct {
	PairingCode string `json:"code" binding:"required"`
}

type SetTVActivationRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type UpdateSubscriptionRequest struct {
	MaxScreens *int `json:"max_screens" binding:"required"`
}
