package bot

// TextMessage is a plain text message.
type TextMessage struct {
	Content string
	mention
}

type textPayload struct {
	message
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
	At *at `json:"at,omitempty"`
}

// NewText returns a text message with the given content.
func NewText(content string) *TextMessage {
	return &TextMessage{Content: content}
}

// AtAll mentions everyone in the group.
func (m *TextMessage) AtAll() *TextMessage {
	m.atAll = true
	return m
}

// AtMobiles mentions the members registered with the given phone numbers.
// Repeated calls append.
func (m *TextMessage) AtMobiles(mobiles ...string) *TextMessage {
	m.atMobiles = append(m.atMobiles, mobiles...)
	return m
}

func (m *TextMessage) Type() MessageType { return TypeText }

func (m *TextMessage) Validate() error { return nil }

func (m *TextMessage) Marshal() ([]byte, error) {
	p := textPayload{message: message{Msgtype: TypeText}, At: m.render()}
	p.Text.Content = m.Content
	return marshal(p)
}

// weComTextPayload is the text shape accepted by WeCom group robots.
type weComTextPayload struct {
	message
	Text struct {
		Content             string   `json:"content"`
		MentionedMobileList []string `json:"mentioned_mobile_list,omitempty"`
	} `json:"text"`
}

// marshalWeCom renders the message for a WeCom robot, where at-all is the
// "@all" pseudo mobile.
func (m *TextMessage) marshalWeCom() ([]byte, error) {
	p := weComTextPayload{message: message{Msgtype: TypeText}}
	p.Text.Content = m.Content
	p.Text.MentionedMobileList = append(p.Text.MentionedMobileList, m.atMobiles...)
	if m.atAll {
		p.Text.MentionedMobileList = append(p.Text.MentionedMobileList, "@all")
	}
	return marshal(p)
}
