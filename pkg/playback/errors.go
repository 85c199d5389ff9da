package playback

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidVideoID  = errors.New("invalid video id format")
	ErrChapterNotFound = errors.New("chapter not found in module")
	ErrNoChapter       = errors.New("no adjacent chapter")
	ErrSessionNotFound = errors.New("playback session not found")
)

// ErrorKind classifies why playback stopped with an error.
type ErrorKind string

const (
	ErrorKindInvalidFormat       ErrorKind = "invalid_format"
	ErrorKindPlayerCreate        ErrorKind = "player_create"
	ErrorKindInvalidID           ErrorKind = "invalid_id"
	ErrorKindHTML5               ErrorKind = "html5"
	ErrorKindNotFound            ErrorKind = "not_found"
	ErrorKindEmbeddingRestricted ErrorKind = "embedding_restricted"
	ErrorKindUnknown             ErrorKind = "unknown"
)

// ClassifyWidgetError maps a widget error code to its kind and the message
// shown to the viewer.
func ClassifyWidgetError(code int) (ErrorKind, string) {
	switch code {
	case 2:
		return ErrorKindInvalidID, "Invalid video ID. Please check the video configuration."
	case 5:
		return ErrorKindHTML5, "HTML5 player error. Please try refreshing the page."
	case 100:
		return ErrorKindNotFound, "Video not found or has been removed."
	case 101, 150:
		return ErrorKindEmbeddingRestricted, "Video owner has restricted playback on embedded players. This video cannot be played here. Please watch it directly on YouTube."
	default:
		return ErrorKindUnknown, fmt.Sprintf("An error occurred while loading the video. Error code: %d", code)
	}
}
