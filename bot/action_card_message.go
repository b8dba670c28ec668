package bot

// Button is an action card button.
type Button struct {
	Title     string `json:"title"`
	ActionURL string `json:"actionURL"`
}

// Layout selects how action card buttons render.
type Layout int

const (
	// LayoutAuto renders a single button as a single-button card and two or
	// more as a horizontal button row.
	LayoutAuto Layout = iota
	// LayoutSingle renders one flat singleTitle/singleURL pair.
	LayoutSingle
	// LayoutVertical stacks the buttons.
	LayoutVertical
	// LayoutHorizontal puts the buttons in one row.
	LayoutHorizontal
)

// ActionCardMessage is a markdown card with one or more buttons. At least
// one button is required to send it.
//
// SetSingleButton, AddButton, Vertical and Horizontal all decide the layout
// and the last call wins: SetSingleButton after AddButton drops the added
// buttons, AddButton after SetSingleButton turns the card back into a
// multi-button card that keeps the single button as its first entry.
type ActionCardMessage struct {
	Title   string
	Text    string
	Buttons []Button
	Layout  Layout
	hide    bool
}

type actionCardPayload struct {
	message
	ActionCard struct {
		Title          string   `json:"title"`
		Text           string   `json:"text"`
		HideAvatar     string   `json:"hideAvatar"`
		BtnOrientation string   `json:"btnOrientation,omitempty"`
		SingleTitle    string   `json:"singleTitle,omitempty"`
		SingleURL      string   `json:"singleURL,omitempty"`
		Btns           []Button `json:"btns,omitempty"`
	} `json:"actionCard"`
}

// NewActionCard returns an action card without buttons.
func NewActionCard(title, text string) *ActionCardMessage {
	return &ActionCardMessage{Title: title, Text: text}
}

// SetSingleButton replaces all buttons with b and selects LayoutSingle.
func (m *ActionCardMessage) SetSingleButton(b Button) *ActionCardMessage {
	m.Buttons = []Button{b}
	m.Layout = LayoutSingle
	return m
}

// AddButton appends b. A card previously set to LayoutSingle goes back to
// LayoutAuto.
func (m *ActionCardMessage) AddButton(b Button) *ActionCardMessage {
	m.Buttons = append(m.Buttons, b)
	if m.Layout == LayoutSingle {
		m.Layout = LayoutAuto
	}
	return m
}

// Vertical stacks the buttons.
func (m *ActionCardMessage) Vertical() *ActionCardMessage {
	m.Layout = LayoutVertical
	return m
}

// Horizontal puts the buttons in one row.
func (m *ActionCardMessage) Horizontal() *ActionCardMessage {
	m.Layout = LayoutHorizontal
	return m
}

// HideAvatar hides the sender avatar.
func (m *ActionCardMessage) HideAvatar() *ActionCardMessage {
	m.hide = true
	return m
}

// ShowAvatar shows the sender avatar. This is the default.
func (m *ActionCardMessage) ShowAvatar() *ActionCardMessage {
	m.hide = false
	return m
}

// EffectiveLayout resolves LayoutAuto against the number of buttons.
func (m *ActionCardMessage) EffectiveLayout() Layout {
	if m.Layout != LayoutAuto {
		return m.Layout
	}
	if len(m.Buttons) == 1 {
		return LayoutSingle
	}
	return LayoutHorizontal
}

func (m *ActionCardMessage) Type() MessageType { return TypeActionCard }

func (m *ActionCardMessage) Validate() error {
	if len(m.Buttons) == 0 {
		return &MessageError{Type: TypeActionCard, Reason: "no buttons"}
	}
	return nil
}

func (m *ActionCardMessage) Marshal() ([]byte, error) {
	p := actionCardPayload{message: message{Msgtype: TypeActionCard}}
	p.ActionCard.Title = m.Title
	p.ActionCard.Text = m.Text
	p.ActionCard.HideAvatar = "0"
	if m.hide {
		p.ActionCard.HideAvatar = "1"
	}
	switch m.EffectiveLayout() {
	case LayoutSingle:
		if len(m.Buttons) > 0 {
			p.ActionCard.SingleTitle = m.Buttons[0].Title
			p.ActionCard.SingleURL = m.Buttons[0].ActionURL
		}
	case LayoutVertical:
		p.ActionCard.BtnOrientation = "0"
		p.ActionCard.Btns = m.Buttons
	case LayoutHorizontal:
		p.ActionCard.BtnOrientation = "1"
		p.ActionCard.Btns = m.Buttons
	}
	return marshal(p)
}
