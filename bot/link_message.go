package bot

// LinkMessage is a single hyperlink with a title, summary text and picture.
type LinkMessage struct {
	Title      string
	Text       string
	PicURL     string
	MessageURL string
}

type linkPayload struct {
	message
	Link struct {
		Title      string `json:"title"`
		Text       string `json:"text"`
		PicURL     string `json:"picUrl"`
		MessageURL string `json:"messageUrl"`
	} `json:"link"`
}

// NewLink returns a link message.
func NewLink(title, text, picURL, messageURL string) *LinkMessage {
	return &LinkMessage{Title: title, Text: text, PicURL: picURL, MessageURL: messageURL}
}

func (m *LinkMessage) Type() MessageType { return TypeLink }

func (m *LinkMessage) Validate() error { return nil }

func (m *LinkMessage) Marshal() ([]byte, error) {
	p := linkPayload{message: message{Msgtype: TypeLink}}
	p.Link.Title = m.Title
	p.Link.Text = m.Text
	p.Link.PicURL = m.PicURL
	p.Link.MessageURL = m.MessageURL
	return marshal(p)
}
