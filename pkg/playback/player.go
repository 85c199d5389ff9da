package playback

import (
	"math"
	"regexp"
)

// PlayerHost is the privacy-enhanced embed host.
const PlayerHost = "https://www.youtube-nocookie.com"

var videoIDRE = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ValidVideoID reports whether id has the widget's 11 character format.
func ValidVideoID(id string) bool {
	return videoIDRE.MatchString(id)
}

// Player is the part of an embedded video widget the controller drives.
type Player interface {
	// CurrentTime returns the playback position in seconds. NaN means the
	// widget doesn't know yet.
	CurrentTime() (float64, error)
	Pause() error
	Destroy()
}

type PlayerVars struct {
	Autoplay       int `json:"autoplay"`
	Start          int `json:"start"`
	Rel            int `json:"rel"`
	ModestBranding int `json:"modestbranding"`
	EnableJSAPI    int `json:"enablejsapi"`
	PlaysInline    int `json:"playsinline"`
}

type PlayerConfig struct {
	// ChapterID is echoed back by the page with every event so signals from
	// a replaced widget can be told apart.
	ChapterID  string     `json:"chapterId"`
	VideoID    string     `json:"videoId"`
	Host       string     `json:"host"`
	PlayerVars PlayerVars `json:"playerVars"`
}

// PlayerFactory creates a widget for the given configuration.
type PlayerFactory func(cfg PlayerConfig) (Player, error)

// NewPlayerConfig returns the fixed widget options, resuming at the last
// known position rounded down to a whole second.
func NewPlayerConfig(chapterID, videoID string, lastPosition float64) PlayerConfig {
	start := 0
	if lastPosition > 0 && !math.IsInf(lastPosition, 0) {
		start = int(math.Floor(lastPosition))
	}
	return PlayerConfig{
		ChapterID: chapterID,
		VideoID:   videoID,
		Host:      PlayerHost,
		PlayerVars: PlayerVars{
			Autoplay:       1,
			Start:          start,
			Rel:            0,
			ModestBranding: 1,
			EnableJSAPI:    1,
			PlaysInline:    1,
		},
	}
}
