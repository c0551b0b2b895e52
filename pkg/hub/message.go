// Package hub fans digest updates out to websocket subscribers using the
// channel-based register/unregister/broadcast pattern.
package hub

// Message is one text payload queued for every client.
type Message struct {
	Data []byte
}

// NewTextMessage creates a text message.
func NewTextMessage(s string) Message {
	return Message{Data: []byte(s)}
}
