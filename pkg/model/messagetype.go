package model

// message types exchanged with a browser session
const (
	MsgKey        = "key"
	MsgStart      = "start"
	MsgCamera     = "camera"
	MsgPing       = "ping"
	MsgWelcome    = "welcome"
	MsgState      = "state"
	MsgCompletion = "completion"
	MsgPong       = "pong"
	MsgError      = "error"
)

// ClientEnvelope is sent from the browser to the server.
type ClientEnvelope struct {
	Type string `json:"type"`
	Code string `json:"code,omitempty"` // key code, e.g. ArrowUp or KeyW
	Down bool   `json:"down,omitempty"`
	Mode string `json:"mode,omitempty"` // camera mode
}

// ServerEnvelope is sent from the server to the browser.
type ServerEnvelope struct {
	Type       string            `json:"type"`
	State      *RaceSnapshot     `json:"state,omitempty"`
	Completion *CompletionRecord `json:"completion,omitempty"`
	Track      string            `json:"track,omitempty"`
	ServerMS   int64             `json:"serverMs,omitempty"`
	Message    string            `json:"message,omitempty"`
}
