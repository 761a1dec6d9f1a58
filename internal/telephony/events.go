package telephony

import (
	"encoding/json"
	"strings"
	"time"
)

// Envelope is the event-grid style wrapper the control plane posts to the
// webhook endpoint, one or more per request.
type Envelope struct {
	ID        string          `json:"id"`
	EventType string          `json:"eventType"`
	Subject   string          `json:"subject,omitempty"`
	EventTime time.Time       `json:"eventTime"`
	Data      json.RawMessage `json:"data"`
}

const (
	EventSubscriptionValidation = "Microsoft.EventGrid.SubscriptionValidationEvent"
	EventIncomingCall           = "Microsoft.Communication.IncomingCall"
	EventCallConnected          = "Microsoft.Communication.CallConnected"
	EventCallDisconnected       = "Microsoft.Communication.CallDisconnected"
	EventTransferAccepted       = "Microsoft.Communication.CallTransferAccepted"
	EventTransferFailed         = "Microsoft.Communication.CallTransferFailed"
)

// SubscriptionValidationData carries the handshake token that must be
// echoed back before the control plane delivers any call events.
type SubscriptionValidationData struct {
	ValidationCode string `json:"validationCode"`
}

// Identifier is the control plane's participant shape. PhoneNumber is set
// for PSTN parties; RawID always is.
type Identifier struct {
	RawID       string `json:"rawId"`
	PhoneNumber *struct {
		Value string `json:"value"`
	} `json:"phoneNumber,omitempty"`
}

// Number extracts an E.164-ish number from an identifier, preferring the
// typed field and falling back to the raw id without its kind prefix.
func (i Identifier) Number() string {
	if i.PhoneNumber != nil && i.PhoneNumber.Value != "" {
		return i.PhoneNumber.Value
	}
	if idx := strings.Index(i.RawID, ":"); idx >= 0 {
		return i.RawID[idx+1:]
	}
	return i.RawID
}

// IncomingCallData announces a new inbound call. IncomingCallContext is the
// token required to answer it.
type IncomingCallData struct {
	IncomingCallContext string     `json:"incomingCallContext"`
	To                  Identifier `json:"to"`
	From                Identifier `json:"from"`
	CorrelationID       string     `json:"correlationId"`
}

// CallEventData is the shared shape of connected/disconnected/transfer
// events, keyed by the call connection id.
type CallEventData struct {
	CallConnectionID  string             `json:"callConnectionId"`
	CorrelationID     string             `json:"correlationId,omitempty"`
	ResultInformation *ResultInformation `json:"resultInformation,omitempty"`
}

type ResultInformation struct {
	Code    int    `json:"code"`
	SubCode int    `json:"subCode"`
	Message string `json:"message,omitempty"`
}

// The control plane raises a CallDisconnected when a transfer completes:
// the original leg ends because control moved to the target's session.
// These sub-codes identify that case so a successful transfer is not
// misread as a hangup.
var transferCompletionSubCodes = map[int]bool{
	7015: true,
}

// IsTransferCompletion reports whether a disconnect event actually signals
// a completed transfer rather than the remote party hanging up.
func (d CallEventData) IsTransferCompletion() bool {
	return d.ResultInformation != nil && transferCompletionSubCodes[d.ResultInformation.SubCode]
}

// ParseEnvelopes decodes a webhook request body. The control plane posts a
// JSON array; a single object is tolerated for manual testing.
func ParseEnvelopes(body []byte) ([]Envelope, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var one Envelope
		if err := json.Unmarshal(body, &one); err != nil {
			return nil, err
		}
		return []Envelope{one}, nil
	}
	var many []Envelope
	if err := json.Unmarshal(body, &many); err != nil {
		return nil, err
	}
	return many, nil
}
