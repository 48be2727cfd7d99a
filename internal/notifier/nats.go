package notifier

import (
	"encoding/json"

	"chargeampsd/internal/services"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// NatsNotifier publishes sensor readings to NATS, one subject per sensor.
type NatsNotifier struct {
	conn *nats.Conn
	log  log.FieldLogger
}

func NewNats(url string, logger log.FieldLogger) (*NatsNotifier, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &NatsNotifier{conn: nc, log: logger}, nil
}

func (n *NatsNotifier) PublishReading(r services.Reading) error {
	bt, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return n.conn.Publish("chargeamps.sensor."+r.ID, bt)
}

func (n *NatsNotifier) Close() {
	if n.conn != nil {
		n.conn.Close()
		n.log.Info("nats notifier stopped")
	}
}
