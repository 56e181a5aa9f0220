package nats

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SubjectPrefix is the root of every kiosk subject.
const SubjectPrefix = "kiosk"

// ActionStop asks the kiosk to stop the application and restore the display.
const ActionStop = "stop"

// Subject returns the subject for kind on node, e.g. kiosk.lobby-01.state.
func Subject(node, kind string) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, node, kind)
}

// SubjectControl returns the subject a node listens on for commands.
func SubjectControl(node string) string {
	return Subject(node, "control")
}

// NodeToken turns a host name into a single subject token.
func NodeToken(name string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '\t', '*', '>':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if token == "" {
		return "unknown"
	}
	return token
}

// ControlMessage is a command sent to a kiosk node.
type ControlMessage struct {
	Action    string `json:"action"`
	Timestamp string `json:"timestamp,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Marshal serializes the message to JSON.
func (m ControlMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalControl deserializes a ControlMessage from JSON.
func UnmarshalControl(data []byte) (ControlMessage, error) {
	var m ControlMessage
	err := json.Unmarshal(data, &m)
	return m, err
}
