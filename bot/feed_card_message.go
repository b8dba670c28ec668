package bot

// FeedCardLink is one entry of a feed card.
type FeedCardLink struct {
	Title      string `json:"title"`
	MessageURL string `json:"messageURL"`
	PicURL     string `json:"picURL"`
}

// FeedCardMessage is a list of linked entries. At least one link is
// required to send it.
type FeedCardMessage struct {
	Links []FeedCardLink
}

type feedCardPayload struct {
	message
	FeedCard struct {
		Links []FeedCardLink `json:"links"`
	} `json:"feedCard"`
}

// NewFeedCard returns a feed card holding links.
func NewFeedCard(links ...FeedCardLink) *FeedCardMessage {
	return &FeedCardMessage{Links: append([]FeedCardLink(nil), links...)}
}

// AddLink appends a link.
func (m *FeedCardMessage) AddLink(link FeedCardLink) *FeedCardMessage {
	m.Links = append(m.Links, link)
	return m
}

// AddLinkDetail appends a link built from its parts.
func (m *FeedCardMessage) AddLinkDetail(title, messageURL, picURL string) *FeedCardMessage {
	return m.AddLink(FeedCardLink{Title: title, MessageURL: messageURL, PicURL: picURL})
}

func (m *FeedCardMessage) Type() MessageType { return TypeFeedCard }

func (m *FeedCardMessage) Validate() error {
	if len(m.Links) == 0 {
		return &MessageError{Type: TypeFeedCard, Reason: "no links"}
	}
	return nil
}

func (m *FeedCardMessage) Marshal() ([]byte, error) {
	p := feedCardPayload{message: message{Msgtype: TypeFeedCard}}
	p.FeedCard.Links = m.Links
	if p.FeedCard.Links == nil {
		p.FeedCard.Links = []FeedCardLink{}
	}
	return marshal(p)
}
