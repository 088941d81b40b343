package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"enhancer-backend/internal/config"
	"enhancer-backend/internal/prompt"
	"enhancer-backend/internal/stream"
	"enhancer-backend/internal/utils"
	"enhancer-backend/pkg/logger"
)

// ProgressFunc receives each content delta, in arrival order.
type ProgressFunc func(delta string)

// Client issues streaming requests against the text-generation proxy and
// drives one stream.Decoder session per call. It never retries on its own;
// retry is a user action at a higher layer.
type Client struct {
	endpoint    string
	provider    string
	tenantID    string
	userID      string
	temperature float32
	httpClient  *http.Client
}

func New(cfg config.ProxyConfig) *Client {
	return &Client{
		endpoint:    strings.TrimSuffix(cfg.Endpoint, "/"),
		provider:    cfg.Provider,
		tenantID:    cfg.TenantID,
		userID:      cfg.UserID,
		temperature: cfg.Temperature,
		httpClient:  utils.NewHTTPClient(cfg.Timeout),
	}
}

// Enhance runs one rewrite action over text and returns the fully
// concatenated response. onDelta is invoked once per emitted delta.
func (c *Client) Enhance(ctx context.Context, action prompt.Action, text, contextText string, onDelta ProgressFunc) (string, error) {
	full, err := prompt.Build(action, text, contextText)
	if err != nil {
		return "", err
	}

	req := request{
		Messages: []message{
			{Role: "system", Content: "You are a writing assistant. Reply with the rewritten text only, no preamble."},
			{Role: "user", Content: full},
		},
		Temperature: c.temperature,
		Stream:      true,
		TenantID:    c.tenantID,
		UserID:      c.userID,
		ButtonID:    string(action),
	}

	return c.do(ctx, req, onDelta)
}

// Chat sends one conversation turn, optionally with an attached image. The
// conversation's editor content and context are included exactly once, on
// the first turn that completes successfully.
func (c *Client) Chat(ctx context.Context, conv *Conversation, userMessage string, img *Image, onDelta ProgressFunc) (string, error) {
	var content any = userMessage
	if img != nil {
		shaped, err := imageContent(c.provider, userMessage, img)
		if err != nil {
			return "", err
		}
		content = shaped
	}

	req := request{
		Messages:    conv.buildMessages(content),
		Temperature: c.temperature,
		Stream:      true,
		TenantID:    c.tenantID,
		UserID:      c.userID,
		ButtonID:    string(prompt.Chat),
		HasImage:    img != nil,
	}

	text, err := c.do(ctx, req, onDelta)
	if err != nil {
		return "", err
	}

	conv.commit(content, text)
	return text, nil
}

func (c *Client) do(ctx context.Context, reqBody request, onDelta ProgressFunc) (string, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	logger.Debugf("POST %s (button: %s, messages: %d)", c.endpoint, reqBody.ButtonID, len(reqBody.Messages))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Errorf("proxy request failed: %v", err)
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", readHTTPError(resp)
	}

	return c.readStream(ctx, resp.Body, onDelta)
}

// readStream pumps the response body through a decoder session, forwarding
// deltas in order with none skipped or duplicated.
func (c *Client) readStream(ctx context.Context, r io.Reader, onDelta ProgressFunc) (string, error) {
	dec := stream.NewDecoder()
	var full strings.Builder
	buf := make([]byte, 4096)

	emit := func(delta string) {
		full.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return full.String(), fmt.Errorf("%w: %v", ErrStream, ctx.Err())
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			for _, delta := range dec.Write(string(buf[:n])) {
				emit(delta)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Errorf("stream reader failed after %d frames: %v", dec.EmittedFrames(), err)
			return full.String(), fmt.Errorf("%w: %v", ErrStream, err)
		}
	}

	if tail := dec.Flush(); tail != "" {
		emit(tail)
	}

	// Per-frame failures are recovered silently, but a stream that produced
	// nothing at all is a visible failure.
	if full.Len() == 0 {
		return "", fmt.Errorf("%w: stream ended with no content", ErrStream)
	}

	return full.String(), nil
}

func readHTTPError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	herr := &HTTPError{Status: resp.StatusCode}
	var parsed errorBody
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		herr.Message = parsed.Error.Message
	}
	logger.Errorf("proxy error %d: %s", resp.StatusCode, herr.Message)
	return herr
}
