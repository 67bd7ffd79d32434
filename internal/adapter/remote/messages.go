package remote

import (
	"errors"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

// CommandType names a client command.
type CommandType string

// Commands accepted from clients.
const (
	CommandGet    CommandType = "get"
	CommandUpdate CommandType = "update"
	CommandReset  CommandType = "reset"
	CommandPlay   CommandType = "play"
	CommandPause  CommandType = "pause"
	CommandToggle CommandType = "toggle"
)

// Command is a client message. Settings is only read for CommandUpdate.
type Command struct {
	Type     CommandType           `json:"type"`
	Settings *domain.SettingsPatch `json:"settings,omitempty"`
}

// MessageType names a server message.
type MessageType string

// Messages sent to clients.
const (
	MessageSettings MessageType = "settings"
	MessageLoop     MessageType = "loop"
	MessagePlayback MessageType = "playback"
	MessageError    MessageType = "error"
)

// outbound is every server message; unused fields are omitted.
type outbound struct {
	Type     MessageType                   `json:"type"`
	Settings *domain.VisualizationSettings `json:"settings,omitempty"`
	Mode     domain.Mode                   `json:"mode,omitempty"`
	Running  *bool                         `json:"running,omitempty"`
	Status   string                        `json:"status,omitempty"`
	Position float64                       `json:"position,omitempty"`
	Error    string                        `json:"error,omitempty"`
	Field    string                        `json:"field,omitempty"`
}

func settingsMessage(v domain.VisualizationSettings) outbound {
	return outbound{Type: MessageSettings, Settings: &v}
}

func errorMessage(err error) outbound {
	msg := outbound{Type: MessageError, Error: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		msg.Field = verr.Field
	}
	return msg
}
