package contentsync

type SyncResponse struct {
	Message string `json:"message"`
	Result
}
