package playback

type OpenPayload struct {
	ChapterID string `json:"chapter_id" mod:"trim" validate:"required"`
}

type EventPayload struct {
	ChapterID string   `json:"chapter_id" mod:"trim" validate:"required"`
	Type      string   `json:"type" mod:"trim" validate:"required,oneof=ready state error position"`
	State     string   `json:"state" validate:"omitempty,oneof=unstarted ended playing paused buffering cued"`
	StateCode *int     `json:"state_code"`
	Code      int      `json:"code"`
	Position  *float64 `json:"position"`
}

type SessionResponse struct {
	ID string `json:"id"`
	Snapshot
	Commands []Command `json:"commands"`
}
