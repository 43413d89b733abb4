// Package vapi exposes the voice provider webhook.
package vapi

import (
	"context"
	"io"
	"net/http"

	"github.com/kilianp07/voicedispatch/api/respond"
	"github.com/kilianp07/voicedispatch/core/callevent"
	"github.com/kilianp07/voicedispatch/core/logger"
)

// MaxBodyBytes bounds the size of a webhook body.
const MaxBodyBytes = 1 << 20

// Processor turns a raw webhook body into the acknowledgment returned to the provider.
type Processor interface {
	Process(ctx context.Context, body []byte) callevent.Ack
}

// NewWebhookHandler returns the POST /vapi-webhook handler. The provider
// always receives a 200 so it never retries.
func NewWebhookHandler(p Processor, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		if err != nil {
			log.Warnf("webhook: read body: %v", err)
			respond.JSON(w, r, log, http.StatusOK, callevent.OK())
			return
		}
		respond.JSON(w, r, log, http.StatusOK, p.Process(r.Context(), body))
	})
}
