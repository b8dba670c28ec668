package bot

// MarkdownMessage is a markdown message. Title is what the conversation list
// shows; Content is the markdown body.
type MarkdownMessage struct {
	Title   string
	Content string
	mention
}

type markdownPayload struct {
	message
	Markdown struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"markdown"`
	At *at `json:"at,omitempty"`
}

// NewMarkdown returns a markdown message.
func NewMarkdown(title, content string) *MarkdownMessage {
	return &MarkdownMessage{Title: title, Content: content}
}

// AtAll mentions everyone in the group.
func (m *MarkdownMessage) AtAll() *MarkdownMessage {
	m.atAll = true
	return m
}

// AtMobiles mentions the members registered with the given phone numbers.
// The content must contain "@<mobile>" for the mention to render.
func (m *MarkdownMessage) AtMobiles(mobiles ...string) *MarkdownMessage {
	m.atMobiles = append(m.atMobiles, mobiles...)
	return m
}

func (m *MarkdownMessage) Type() MessageType { return TypeMarkdown }

func (m *MarkdownMessage) Validate() error { return nil }

func (m *MarkdownMessage) Marshal() ([]byte, error) {
	p := markdownPayload{message: message{Msgtype: TypeMarkdown}, At: m.render()}
	p.Markdown.Title = m.Title
	p.Markdown.Text = m.Content
	return marshal(p)
}
