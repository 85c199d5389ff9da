package progress

type UpdatePayload struct {
	Position float64 `json:"position" validate:"gte=0"`
	Duration float64 `json:"duration" validate:"gte=0"`
}

type ChapterProgress struct {
	Entry
	Status  Status `json:"status"`
	Percent int    `json:"percent"`
}

type ListResponse struct {
	StorageKey string            `json:"storage_key"`
	Entries    map[string]Entry  `json:"entries"`
	Statuses   map[string]Status `json:"statuses"`
}
