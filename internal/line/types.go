package line

import "encoding/json"

// Minimal LINE Messaging API webhook types needed for event handling

type WebhookRequest struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

type Event struct {
	Type       string    `json:"type"`
	Timestamp  int64     `json:"timestamp"`
	Source     *Source   `json:"source"`
	ReplyToken string    `json:"replyToken"`
	Message    *EventMsg `json:"message"`
	Postback   *Postback `json:"postback"`
}

type Source struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type EventMsg struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

type Postback struct {
	Data string `json:"data"`
}

// Message is one outbound message. Text messages carry Text; flex messages
// carry AltText plus the raw bubble JSON in Contents.
type Message struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	AltText  string          `json:"altText,omitempty"`
	Contents json.RawMessage `json:"contents,omitempty"`
}

// TextMessage builds a plain text message.
func TextMessage(text string) Message {
	return Message{Type: "text", Text: text}
}

// FlexMessage builds a flex message from pre-rendered bubble JSON.
func FlexMessage(altText string, contents json.RawMessage) Message {
	return Message{Type: "flex", AltText: altText, Contents: contents}
}
