package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/atlas-vision/atlas/internal/log"
)

const (
	analyzePath = "/analyze-landmark"
	chatPath    = "/chat"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 1 << 20
)

type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables throttling
	Burst             int
	HTTPClient        *http.Client
}

// AtlasClient implements Recognizer and Responder over the Atlas HTTP API.
type AtlasClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func NewAtlasClient(opts Options) *AtlasClient {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &AtlasClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (c *AtlasClient) Analyze(ctx context.Context, upload Upload) (*AnalyzeResponse, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.Filename))
	mediaType := upload.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	header.Set("Content-Type", mediaType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, fmt.Errorf("write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	var resp AnalyzeResponse
	if err := c.post(ctx, analyzePath, w.FormDataContentType(), &body, &resp); err != nil {
		return nil, err
	}
	if err := check(analyzePath, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *AtlasClient) Reply(ctx context.Context, subject, question string) (string, error) {
	payload, err := json.Marshal(chatRequest{MonumentName: subject, Question: question})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var resp chatResponse
	if err := c.post(ctx, chatPath, "application/json", bytes.NewReader(payload), &resp); err != nil {
		return "", err
	}
	if err := check(chatPath, &resp); err != nil {
		return "", err
	}
	return resp.Reply, nil
}

func (c *AtlasClient) post(ctx context.Context, endpoint, contentType string, body io.Reader, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", endpoint, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	fields := log.Fields{log.RequestIDKey: requestID, "endpoint": endpoint}
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		fields["error"] = err.Error()
		log.Warn(fields, "[client.post] request failed")
		return fmt.Errorf("%s: http request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", endpoint, err)
	}

	fields["status"] = resp.StatusCode
	fields["elapsed"] = time.Since(start).String()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn(fields, "[client.post] non-success status")
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	log.Debug(fields, "[client.post] ok")

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w: %v", endpoint, ErrMalformedResponse, err)
	}
	return nil
}
