package bot

import "encoding/json"

// MessageType is the msgtype discriminator of the robot wire format.
type MessageType string

const (
	TypeText       MessageType = "text"
	TypeMarkdown   MessageType = "markdown"
	TypeLink       MessageType = "link"
	TypeActionCard MessageType = "actionCard"
	TypeFeedCard   MessageType = "feedCard"
)

// Message is one of the robot message kinds: *TextMessage,
// *MarkdownMessage, *LinkMessage, *FeedCardMessage or *ActionCardMessage.
type Message interface {
	// Type reports the msgtype of the message.
	Type() MessageType
	// Validate reports whether the message may be sent as built.
	Validate() error
	// Marshal renders the message envelope as JSON.
	Marshal() ([]byte, error)
}

type message struct {
	Msgtype MessageType `json:"msgtype"`
}

// at is the mention block shared by text and markdown messages.
type at struct {
	AtMobiles []string `json:"atMobiles,omitempty"`
	IsAtAll   bool     `json:"isAtAll"`
}

// mention holds the mutable mention state of a message.
type mention struct {
	atAll     bool
	atMobiles []string
}

func (m *mention) render() *at {
	if !m.atAll && len(m.atMobiles) == 0 {
		return nil
	}
	return &at{AtMobiles: m.atMobiles, IsAtAll: m.atAll}
}

func marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
