// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import evbus "github.com/asaskevich/EventBus"

// Event topic names published after a successful commit, with the
// arguments each is published with.
const (
	EventTx           = "tx"          // (*extTX, *Details)
	EventConfirmed    = "confirmed"   // (*extTX, []uint32 accounts)
	EventUnconfirmed  = "unconfirmed" // (*extTX, []uint32 accounts)
	EventRemoveTx     = "remove tx"   // (*extTX, []uint32 accounts)
	EventConflict     = "conflict"    // (*extTX)
	EventBalance      = "balance"     // (Balance, *Details after an insert, []uint32 accounts otherwise)
)

// Events is the publish side of the store's event bus. A Store publishes
// to it; callers Subscribe to receive tx/confirmed/unconfirmed/remove
// tx/conflict/balance notifications in commit order.
type Events struct {
	bus evbus.Bus
}

// NewEvents returns a fresh, unsubscribed event bus.
func NewEvents() *Events {
	return &Events{bus: evbus.New()}
}

// Subscribe registers fn to be called whenever topic is published. fn's
// signature must match the arguments documented for the topic constant.
func (e *Events) Subscribe(topic string, fn interface{}) error {
	return e.bus.Subscribe(topic, fn)
}

// Unsubscribe removes a previously registered handler.
func (e *Events) Unsubscribe(topic string, fn interface{}) error {
	return e.bus.Unsubscribe(topic, fn)
}

func (e *Events) publish(topic string, args ...interface{}) {
	e.bus.Publish(topic, args...)
}

// bufferedEvent is one event staged during a batch body. It is only
// published once the batch commits; on drop the whole buffer is discarded
// so callers never observe a partial or rolled-back write.
type bufferedEvent struct {
	topic string
	args  []interface{}
}
