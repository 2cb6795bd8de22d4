package proto

// MsgType is the wire discriminator carried in every frame.
type MsgType int

const (
	MsgTypeUnknown MsgType = iota
	MsgTypeMessage
	MsgTypeAction
	MsgTypeDelete
)

func (t MsgType) String() string {
	switch t {
	case MsgTypeMessage:
		return "message"
	case MsgTypeAction:
		return "action"
	case MsgTypeDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Frame is one server -> client payload as it appears on the socket.
type Frame struct {
	MsgType     MsgType `json:"msgType"`
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	DisplayCol  string  `json:"displayCol"`
	Channel     string  `json:"channel"`
	Msg         string  `json:"msg"`
	Time        int64   `json:"time"`
	Emotes      []Emote `json:"emotes"`
}

// Emote names a literal token in Msg and the CDN id that replaces it.
type Emote struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}
