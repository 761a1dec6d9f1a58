package telephony

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"callcenter-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CallEventSink is what the webhook handler drives. The router implements
// it; keeping the contract here avoids webhook parsing leaking out of the
// adapter.
//
// All methods are fire-and-ack from the webhook's point of view: a failed
// incoming-call routing is reported in the response body but the event is
// still acknowledged, because the control plane would only redeliver it.
type CallEventSink interface {
	HandleIncomingCall(ctx context.Context, destinationNumber, callerNumber, incomingContext string) error
	HandleCallConnected(ctx context.Context, connectionID string)
	HandleRemoteDisconnect(ctx context.Context, connectionID string)
	HandleTransferAccepted(ctx context.Context, connectionID string)
	HandleTransferFailed(ctx context.Context, connectionID string)
}

// WebhookHandler terminates the control plane's event delivery:
// subscription validation handshake, envelope parsing, replay dedupe, and
// dispatch into the sink. Unrecognized event types are acknowledged and
// ignored, never an error.
type WebhookHandler struct {
	Sink   CallEventSink
	Dedupe Deduper
}

func (h WebhookHandler) HandleEvents(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Sink == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "event sink not configured"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	envelopes, err := ParseEnvelopes(body)
	if err != nil {
		log.Warn("webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	ctx := c.Request.Context()
	results := make([]gin.H, 0, len(envelopes))

	for _, env := range envelopes {
		// Handshake must be served before any event delivery begins.
		if env.EventType == EventSubscriptionValidation {
			var data SubscriptionValidationData
			if err := json.Unmarshal(env.Data, &data); err != nil || data.ValidationCode == "" {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid validation event"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"validationResponse": data.ValidationCode})
			return
		}

		if h.Dedupe != nil && !h.Dedupe.FirstSeen(ctx, env.ID) {
			log.Debug("duplicate event skipped", "event_id", env.ID, "event_type", env.EventType)
			results = append(results, gin.H{"id": env.ID, "status": "duplicate"})
			continue
		}

		results = append(results, h.dispatch(ctx, log, env))
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h WebhookHandler) dispatch(ctx context.Context, log *slog.Logger, env Envelope) gin.H {
	switch env.EventType {
	case EventIncomingCall:
		var data IncomingCallData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			log.Warn("incoming call event malformed", "event_id", env.ID, "err", err)
			return gin.H{"id": env.ID, "status": "malformed"}
		}
		if err := h.Sink.HandleIncomingCall(ctx, data.To.Number(), data.From.Number(), data.IncomingCallContext); err != nil {
			log.Warn("incoming call not routed",
				"event_id", env.ID,
				"destination", data.To.Number(),
				"err", err,
			)
			return gin.H{"id": env.ID, "status": "routing_failed"}
		}
		return gin.H{"id": env.ID, "status": "routed"}

	case EventCallConnected, EventCallDisconnected, EventTransferAccepted, EventTransferFailed:
		var data CallEventData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			log.Warn("call event malformed", "event_id", env.ID, "event_type", env.EventType, "err", err)
			return gin.H{"id": env.ID, "status": "malformed"}
		}
		switch env.EventType {
		case EventCallConnected:
			h.Sink.HandleCallConnected(ctx, data.CallConnectionID)
		case EventCallDisconnected:
			if data.IsTransferCompletion() {
				// Transfer completion surfaces as a disconnect at the
				// control plane; the transfer-accepted path owns it.
				h.Sink.HandleTransferAccepted(ctx, data.CallConnectionID)
			} else {
				h.Sink.HandleRemoteDisconnect(ctx, data.CallConnectionID)
			}
		case EventTransferAccepted:
			h.Sink.HandleTransferAccepted(ctx, data.CallConnectionID)
		case EventTransferFailed:
			h.Sink.HandleTransferFailed(ctx, data.CallConnectionID)
		}
		return gin.H{"id": env.ID, "status": "processed"}

	default:
		log.Debug("unrecognized event type acknowledged", "event_id", env.ID, "event_type", env.EventType)
		return gin.H{"id": env.ID, "status": "ignored"}
	}
}
