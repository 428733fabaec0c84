package hub

import (
	"encoding/json"
	"errors"
)

// errUnknownEvent is reported back to a client that submits an event name
// outside the contract.
var errUnknownEvent = errors.New("unknown event")

// Event names carried on the realtime channel. Inbound events submit a
// single new record; outbound events ship the full current collection, and
// clients overwrite their local view with it rather than merging.
const (
	// Inbound (client → server)
	EventNewMessage = "newMessage"
	EventNewProduct = "newProduct"

	// Outbound (server → client)
	EventMessages = "messages"
	EventProducts = "products"
	EventError    = "error"
)

// Envelope is the wire frame for every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// errorPayload is the body of an EventError frame, delivered only to the
// connection whose submission failed.
type errorPayload struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

// encodeEvent marshals a payload into a wire frame.
func encodeEvent(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
