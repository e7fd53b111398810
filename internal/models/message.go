package models

type MessageType int

const (
	User MessageType = iota
	Assistant
)

// Message is one chat turn. Transcript order is display order.
type Message struct {
	Content string
	Type    MessageType
}

func (m Message) IsFromAssistant() bool {
	return m.Type == Assistant
}
