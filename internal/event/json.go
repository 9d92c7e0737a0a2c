package event

import (
	"encoding/json"
	"fmt"
)

type wireEnvelope struct {
	Command Command           `json:"command"`
	Status  Status            `json:"status,omitempty"`
	Level   NotificationLevel `json:"level,omitempty"`
	Data    any               `json:"data"`
}

func (e EventProtocol) MarshalJSON() ([]byte, error) {
	w := wireEnvelope{Command: e.Command, Status: e.Status, Level: e.Level}
	switch d := e.Data.(type) {
	case *Page:
		if d == nil {
			return nil, fmt.Errorf("event: nil page payload")
		}
		w.Data = d
	case ExternalData:
		if d == nil {
			d = ExternalData{}
		}
		w.Data = map[string]any(d)
	default:
		return nil, fmt.Errorf("event: unsupported payload %T", e.Data)
	}
	return json.Marshal(w)
}

// UnmarshalJSON runs the full Parse validation.
func (e *EventProtocol) UnmarshalJSON(b []byte) error {
	parsed, err := Parse(b)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
