package events

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"parsera-notifier/internal/event"
	"parsera-notifier/internal/pkg/render"
)

const maxEnvelopeBytes = 1 << 20

// readEnvelope parses the request body and writes the 400 itself on failure.
func readEnvelope(w http.ResponseWriter, r *http.Request) ([]byte, event.EventProtocol, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEnvelopeBytes))
	if err != nil {
		render.ChiErr(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("read body: %w", err))
		return nil, event.EventProtocol{}, false
	}

	ev, err := event.Parse(body)
	if err != nil {
		var ve *event.ValidationError
		if errors.As(err, &ve) {
			render.ChiErrPath(w, r, http.StatusBadRequest, ve.Path, err)
		} else {
			render.ChiErr(w, r, http.StatusBadRequest, err)
		}
		return nil, event.EventProtocol{}, false
	}
	return body, ev, true
}
