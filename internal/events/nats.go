package events

import (
	"context"

	"github.com/nats-io/nats.go"
)

const natsSubjectPrefix = "cart.updated."

type natsConn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSPublisher sends each update to cart.updated.<session-id>.
type NATSPublisher struct {
	conn natsConn
}

func ConnectNATS(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("rocketshoes-storefront"))
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc}, nil
}

func NewNATSPublisher(conn natsConn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

func (p *NATSPublisher) Publish(_ context.Context, ev CartUpdated) error {
	data, err := encode(ev)
	if err != nil {
		return err
	}
	return p.conn.Publish(natsSubjectPrefix+ev.SessionID, data)
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
