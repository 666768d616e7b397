package models

// MessageKind selects how an outbound message is rendered by the transport.
type MessageKind string

const (
	// MessageText is a plain text bubble.
	MessageText MessageKind = "text"
	// MessageButtons is a short action list (up to four choices).
	MessageButtons MessageKind = "buttons"
	// MessageCarousel is a row of image/text columns, one choice each.
	MessageCarousel MessageKind = "carousel"
	// MessageConfirm is a yes/no confirmation with exactly two choices.
	MessageConfirm MessageKind = "confirm"
)

// Choice is one selectable option of a prompt.
type Choice struct {
	Action       Action `json:"action"`
	Label        string `json:"label"`          // button caption
	Echo         string `json:"echo,omitempty"` // text the selection posts back into the chat
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Message is a transport-neutral outbound message.
type Message struct {
	Kind    MessageKind `json:"kind"`
	Text    string      `json:"text,omitempty"`
	Title   string      `json:"title,omitempty"`
	AltText string      `json:"alt_text,omitempty"`
	Choices []Choice    `json:"choices,omitempty"`
}

// TextMessage builds a plain text message.
func TextMessage(text string) Message {
	return Message{Kind: MessageText, Text: text}
}

// Echoes returns the echo labels of every choice, in order.
func (m Message) Echoes() []string {
	var out []string
	for _, c := range m.Choices {
		if c.Echo != "" {
			out = append(out, c.Echo)
		}
	}
	return out
}
