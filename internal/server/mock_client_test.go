package server

import "github.com/palemoky/bubble-duel/internal/protocol"

// MockClient implements ClientInterface for handler/room tests.
type MockClient struct {
	ID       string
	RoomID   string
	Messages []*protocol.Message
	Closed   bool
}

func (m *MockClient) GetID() string {
	return m.ID
}

func (m *MockClient) GetRoom() string {
	return m.RoomID
}

func (m *MockClient) SetRoom(roomID string) {
	m.RoomID = roomID
}

func (m *MockClient) SendMessage(msg *protocol.Message) {
	m.Messages = append(m.Messages, msg)
}

func (m *MockClient) Close() {
	m.Closed = true
}

// countMessages counts received messages of the given type.
func (m *MockClient) countMessages(msgType protocol.MessageType) int {
	count := 0
	for _, msg := range m.Messages {
		if msg.Type == msgType {
			count++
		}
	}
	return count
}

// lastMessage returns the last received message of the given type, or nil.
func (m *MockClient) lastMessage(msgType protocol.MessageType) *protocol.Message {
	for i := len(m.Messages) - 1; i >= 0; i-- {
		if m.Messages[i].Type == msgType {
			return m.Messages[i]
		}
	}
	return nil
}
