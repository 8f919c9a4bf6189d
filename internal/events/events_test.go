package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RocketShoes/internal/cart"
	"RocketShoes/internal/slot"
)

type fakeNATS struct {
	subjects []string
	payloads [][]byte
	drained  bool
}

func (f *fakeNATS) Publish(subj string, data []byte) error {
	f.subjects = append(f.subjects, subj)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeNATS) Drain() error {
	f.drained = true
	return nil
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

type upstream struct{}

func (upstream) GetProduct(_ context.Context, id int) (cart.Product, error) {
	return cart.Product{ID: id, Title: "Tênis", Price: 100, Image: "img"}, nil
}

func (upstream) GetStock(_ context.Context, id int) (cart.Stock, error) {
	return cart.Stock{ID: id, Amount: 10}, nil
}

func openStore(t *testing.T) *cart.Store {
	t.Helper()
	s, err := cart.Open(context.Background(), cart.Config{
		Catalog:   upstream{},
		Inventory: upstream{},
		Slot:      slot.NewMemSlot(),
	})
	require.NoError(t, err)
	return s
}

func TestForward_NATS(t *testing.T) {
	store := openStore(t)
	nc := &fakeNATS{}
	pub := NewNATSPublisher(nc)

	cancel := Forward(store, "s-1", pub, nil)
	store.AddProduct(context.Background(), 1)
	store.AddProduct(context.Background(), 1)
	cancel()
	store.AddProduct(context.Background(), 2)

	require.Len(t, nc.payloads, 2)
	assert.Equal(t, []string{"cart.updated.s-1", "cart.updated.s-1"}, nc.subjects)

	var ev CartUpdated
	require.NoError(t, json.Unmarshal(nc.payloads[1], &ev))
	assert.Equal(t, "s-1", ev.SessionID)
	assert.Equal(t, uint64(2), ev.Seq)
	assert.Equal(t, 1, ev.Count)
	assert.Equal(t, 2, ev.Items[0].Amount)
	assert.InDelta(t, 200, ev.Total, 1e-9)

	require.NoError(t, pub.Close())
	assert.True(t, nc.drained)
}

func TestForward_Kafka(t *testing.T) {
	store := openStore(t)
	w := &fakeWriter{}
	pub := &KafkaPublisher{w: w}

	Forward(store, "s-2", pub, nil)
	store.AddProduct(context.Background(), 3)

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("s-2"), w.msgs[0].Key)

	var ev CartUpdated
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, 3, ev.Items[0].ID)
}

func TestForward_PublishErrorDoesNotAffectCart(t *testing.T) {
	store := openStore(t)
	pub := &KafkaPublisher{w: &fakeWriter{err: errors.New("broker down")}}

	Forward(store, "s-3", pub, nil)
	store.AddProduct(context.Background(), 1)

	assert.Len(t, store.Cart(), 1)
}
