package telephony

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const acsAPIVersion = "2023-10-15"

// ACSClient talks to the Azure Communication Services Call Automation REST
// surface. Requests are signed with the resource access key (HMAC-SHA256
// over verb, path+query, date, host and content hash).
type ACSClient struct {
	endpoint  string // https://<resource>.communication.azure.com, no trailing slash
	accessKey []byte
	http      *http.Client
	now       func() time.Time
}

func NewACSClient(endpoint, accessKey string, timeout time.Duration) (*ACSClient, error) {
	if endpoint == "" || accessKey == "" {
		return nil, fmt.Errorf("acs: endpoint and access key required")
	}
	key, err := base64.StdEncoding.DecodeString(accessKey)
	if err != nil {
		return nil, fmt.Errorf("acs: access key must be base64: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ACSClient{
		endpoint:  endpoint,
		accessKey: key,
		http:      &http.Client{Timeout: timeout},
		now:       time.Now,
	}, nil
}

func (c *ACSClient) Name() string { return "acs" }

type acsAnswerRequest struct {
	IncomingCallContext string `json:"incomingCallContext"`
	CallbackURI         string `json:"callbackUri"`
}

type acsAnswerResponse struct {
	CallConnectionID string `json:"callConnectionId"`
}

func (c *ACSClient) Answer(ctx context.Context, incomingContext, callbackURI string) (string, error) {
	if incomingContext == "" {
		return "", fmt.Errorf("acs: incoming call context required")
	}
	body, err := json.Marshal(acsAnswerRequest{
		IncomingCallContext: incomingContext,
		CallbackURI:         callbackURI,
	})
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, http.MethodPost, "/calling/callConnections:answer", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", c.statusError("answer", resp)
	}
	var out acsAnswerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("acs: answer response decode: %w", err)
	}
	if out.CallConnectionID == "" {
		return "", fmt.Errorf("acs: answer response missing callConnectionId")
	}
	return out.CallConnectionID, nil
}

type acsTransferRequest struct {
	TransferTarget acsIdentifier `json:"transferTargetParticipant"`
}

type acsIdentifier struct {
	RawID string `json:"rawId"`
}

func (c *ACSClient) Transfer(ctx context.Context, connectionID, targetIdentity string) error {
	if connectionID == "" || targetIdentity == "" {
		return fmt.Errorf("acs: connection id and target identity required")
	}
	body, err := json.Marshal(acsTransferRequest{TransferTarget: acsIdentifier{RawID: targetIdentity}})
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/calling/callConnections/%s:transferToParticipant", url.PathEscape(connectionID))
	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		return nil
	case http.StatusNotFound:
		return ErrConnectionNotFound
	default:
		return c.statusError("transfer", resp)
	}
}

func (c *ACSClient) Hangup(ctx context.Context, connectionID string, forEveryone bool) error {
	if connectionID == "" {
		return fmt.Errorf("acs: connection id required")
	}

	method := http.MethodDelete
	path := fmt.Sprintf("/calling/callConnections/%s", url.PathEscape(connectionID))
	if forEveryone {
		method = http.MethodPost
		path = fmt.Sprintf("/calling/callConnections/%s:terminate", url.PathEscape(connectionID))
	}

	resp, err := c.do(ctx, method, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrConnectionNotFound
	default:
		return c.statusError("hangup", resp)
	}
}

func (c *ACSClient) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	pathAndQuery := path + "?api-version=" + acsAPIVersion
	u := c.endpoint + pathAndQuery

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	contentHash := sha256.Sum256(body)
	contentHashB64 := base64.StdEncoding.EncodeToString(contentHash[:])
	date := c.now().UTC().Format(http.TimeFormat)
	host := req.URL.Host

	stringToSign := method + "\n" + pathAndQuery + "\n" + date + ";" + host + ";" + contentHashB64
	mac := hmac.New(sha256.New, c.accessKey)
	mac.Write([]byte(stringToSign))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-ms-date", date)
	req.Header.Set("x-ms-content-sha256", contentHashB64)
	req.Header.Set("Authorization",
		"HMAC-SHA256 SignedHeaders=x-ms-date;host;x-ms-content-sha256&Signature="+signature)

	return c.http.Do(req)
}

func (c *ACSClient) statusError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("acs: %s failed with status %d: %s", op, resp.StatusCode, string(snippet))
}
