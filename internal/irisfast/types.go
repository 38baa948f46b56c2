package irisfast

import "strings"

// Message is one chat event pushed by Iris.
type Message struct {
	Msg    string       `json:"msg"`
	Room   string       `json:"room"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageJSON `json:"json,omitempty"`
}

// MessageJSON is the raw chat log row attached to a Message.
type MessageJSON struct {
	UserID  string `json:"user_id,omitempty"`
	ChatID  string `json:"chat_id,omitempty"`
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
}

// SenderName returns the trimmed display name, or "".
func (m *Message) SenderName() string {
	if m == nil || m.Sender == nil {
		return ""
	}
	return strings.TrimSpace(*m.Sender)
}

// UserID returns the stable Kakao user id, or "".
func (m *Message) UserID() string {
	if m == nil || m.JSON == nil {
		return ""
	}
	return strings.TrimSpace(m.JSON.UserID)
}

// ReplyRequest is the /reply body and the WebSocket reply frame.
type ReplyRequest struct {
	Type string `json:"type"` // text | image
	Room string `json:"room"`
	Data string `json:"data"`
}

// Config is what GET /config reports.
type Config struct {
	BotName         string `json:"bot_name,omitempty"`
	BotHTTPPort     int    `json:"bot_http_port,omitempty"`
	WebEndpoint     string `json:"web_server_endpoint,omitempty"`
	DBPollingRate   int    `json:"db_polling_rate,omitempty"`
	MessageSendRate int    `json:"message_send_rate,omitempty"`
}

type WebSocketState int

const (
	WSStateDisconnected WebSocketState = iota
	WSStateConnecting
	WSStateConnected
	WSStateReconnecting
	WSStateFailed
)

func (s WebSocketState) String() string {
	switch s {
	case WSStateDisconnected:
		return "disconnected"
	case WSStateConnecting:
		return "connecting"
	case WSStateConnected:
		return "connected"
	case WSStateReconnecting:
		return "reconnecting"
	case WSStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
