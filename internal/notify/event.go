// Package notify fans out row-change events from Postgres to live
// subscribers and, optionally, to an AMQP exchange.
package notify

import "encoding/json"

// ChangeEvent is the payload the database triggers emit on each channel:
// the statement kind and the full row after the change.
type ChangeEvent struct {
	Action string          `json:"action"`
	Record json.RawMessage `json:"record"`
}

// Envelope is what subscribers receive: the originating channel name
// plus the change payload.
type Envelope struct {
	Channel string      `json:"channel"`
	Data    ChangeEvent `json:"data"`
}
