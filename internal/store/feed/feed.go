// Package feed is the store's change feed: every mutation publishes a
// collection-level event that consumers (the sync engine, chiefly) can
// subscribe to without polling. Subscriptions return a disposer so
// teardown cancels delivery deterministically.
//
// The bus rides on watermill's in-process gochannel pub/sub.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Op describes what happened to a record.
type Op string

const (
	OpInsert Op = "insert"
	OpPatch  Op = "patch"
	OpDelete Op = "delete"
)

// Change is one mutation event.
type Change struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Op         Op     `json:"op"`
}

const topicPrefix = "changes."

// Bus fans out store mutations to subscribers.
type Bus struct {
	pubSub *gochannel.GoChannel
}

// NewBus returns a ready in-process bus.
func NewBus() *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NopLogger{},
		),
	}
}

// Publish emits a change for the given collection.
func (b *Bus) Publish(change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubSub.Publish(topicPrefix+change.Collection, msg); err != nil {
		return fmt.Errorf("publishing change: %w", err)
	}
	return nil
}

// Subscribe returns a channel of changes for one collection plus a
// disposer. After the disposer runs no further changes are delivered and
// the channel is closed.
func (b *Bus) Subscribe(collection string) (<-chan Change, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())

	msgs, err := b.pubSub.Subscribe(ctx, topicPrefix+collection)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("subscribing to %s: %w", collection, err)
	}

	out := make(chan Change, 64)
	go func() {
		defer close(out)
		for msg := range msgs {
			var change Change
			if err := json.Unmarshal(msg.Payload, &change); err != nil {
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cancel, nil
}

// Close shuts the bus down; all subscriber channels are closed.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}
