package playback

import (
	"context"
	"math"
	"time"

	"github.com/dacweb/dac/pkg/models"
	"github.com/dacweb/dac/pkg/progress"
	"github.com/robinjoseph08/golib/logger"
)

// sampler polls a player's position on a fixed interval and feeds it to the
// tracker. It works off the player and chapter it was started with and never
// touches the controller, so the controller can stop it while holding its
// own lock.
type sampler struct {
	stop chan struct{}
	done chan struct{}
}

func startSampler(ctx context.Context, interval time.Duration, player Player, tracker *progress.Tracker, chapter *models.Chapter) *sampler {
	s := &sampler{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		log := logger.FromContext(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
			}

			position, err := player.CurrentTime()
			if err != nil || math.IsNaN(position) {
				continue
			}
			if _, err := tracker.Update(ctx, chapter.ID, position, chapter.Duration); err != nil {
				log.Warn("failed to record playback progress", logger.Data{"chapter_id": chapter.ID, "error": err.Error()})
			}
		}
	}()

	return s
}

// halt stops the goroutine and waits for it to exit.
func (s *sampler) halt() {
	close(s.stop)
	<-s.done
}
