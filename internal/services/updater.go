package services

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// ReadingPublisher pushes sensor readings to an external consumer.
type ReadingPublisher interface {
	PublishReading(r Reading) error
}

// Updater drives the sensor update cycle on a fixed schedule, taking the
// place of a host runtime poller. Publish errors are logged and dropped.
type Updater struct {
	sensors   []Sensor
	interval  time.Duration
	publisher ReadingPublisher
	log       log.FieldLogger
}

func NewUpdater(sensors []Sensor, interval time.Duration, publisher ReadingPublisher, logger log.FieldLogger) *Updater {
	return &Updater{sensors: sensors, interval: interval, publisher: publisher, log: logger}
}

// Run blocks until ctx is cancelled. The first pass runs immediately so
// sensors have state before the first tick.
func (u *Updater) Run(ctx context.Context) {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	u.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.tick(ctx)
		}
	}
}

func (u *Updater) tick(ctx context.Context) {
	for _, s := range u.sensors {
		s.Update(ctx)
		if u.publisher == nil {
			continue
		}
		if err := u.publisher.PublishReading(s.Reading()); err != nil {
			u.log.WithError(err).WithField("sensor", s.ID()).Error("could not publish reading")
		}
	}
}
