package handlers

import (
	"bytes"
	"encoding/json"
	"errors"

	"attendance/faces"
)

var errMissingSeanceID = errors.New("seance_id is missing")

// SeanceID accepts both JSON numbers and strings, clients send either
type SeanceID string

func (s *SeanceID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = SeanceID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("seance_id must be a number or a string")
	}
	*s = SeanceID(n.String())
	return nil
}

// Header precedes every frame. Unknown fields are ignored.
type Header struct {
	SeanceID SeanceID `json:"seance_id"`
}

func parseHeader(data []byte) (h Header, err error) {
	if err = json.Unmarshal(data, &h); err != nil {
		return
	}
	if h.SeanceID == "" {
		err = errMissingSeanceID
	}
	return
}

type Reply struct {
	Detections []faces.Detection `json:"detections"`
	ImageSize  faces.ImageSize   `json:"image_size"`
}
