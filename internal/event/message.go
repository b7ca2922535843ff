package event

// RoomMessageType is the event type for text messages. Events of any
// other type are carried through unmodified and ignored by the export
// pipeline.
const RoomMessageType = "m.room.message"

// Relation types understood by the resolver.
const (
	RelTypeReplace = "m.replace"
	RelTypeThread  = "m.thread"
)

// Message is a raw room event. Fields mirror the Matrix client-server
// API event shape; a message is immutable once received.
type Message struct {
	Type           string    `json:"type"`
	EventID        string    `json:"event_id"`
	Sender         string    `json:"sender,omitempty"`
	OriginServerTS int64     `json:"origin_server_ts"`
	RoomID         string    `json:"room_id,omitempty"`
	Content        Content   `json:"content"`
	Unsigned       *Unsigned `json:"unsigned,omitempty"`
}

// Content is the content block of an m.room.message event. Every field
// is optional on the wire; absent fields decode to their zero value.
type Content struct {
	MsgType       string      `json:"msgtype,omitempty"`
	Body          string      `json:"body,omitempty"`
	FormattedBody string      `json:"formatted_body,omitempty"`
	Format        string      `json:"format,omitempty"`
	RelatesTo     *RelatesTo  `json:"m.relates_to,omitempty"`
	NewContent    *NewContent `json:"m.new_content,omitempty"`

	// InReplyTo directly under content predates the m.relates_to
	// placement; some clients still emit it there.
	InReplyTo *InReplyTo `json:"m.in_reply_to,omitempty"`
}

// RelatesTo expresses a relationship to another event. For edits
// RelType is "m.replace", for thread replies "m.thread"; rich replies
// carry only the nested InReplyTo reference.
type RelatesTo struct {
	RelType   string     `json:"rel_type,omitempty"`
	EventID   string     `json:"event_id,omitempty"`
	InReplyTo *InReplyTo `json:"m.in_reply_to,omitempty"`
}

// InReplyTo references the event being replied to.
type InReplyTo struct {
	EventID string `json:"event_id,omitempty"`
}

// NewContent is the replacement content of an edit ("m.replace") event.
type NewContent struct {
	MsgType       string `json:"msgtype,omitempty"`
	Body          string `json:"body,omitempty"`
	FormattedBody string `json:"formatted_body,omitempty"`
}

// Unsigned holds optional unsigned metadata attached by the server.
type Unsigned struct {
	Age           int64  `json:"age,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// IsRoomMessage reports whether the event is a text message event.
func (m Message) IsRoomMessage() bool {
	return m.Type == RoomMessageType
}

// Body returns the content body, defaulting to "" when absent.
func (m Message) Body() string {
	return m.Content.Body
}

// FormattedBody returns the formatted body, defaulting to "" when absent.
func (m Message) FormattedBody() string {
	return m.Content.FormattedBody
}
