// Package docs is the HTTP client of the external document question answering service.
package docs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dtroode/docchat-server/internal/model"
)

const maxResponseBytes = 1 << 20

var _ model.DocumentService = (*Client)(nil)

// Client calls the document service's /upload and /ask endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the service rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP creates a Client using the given http.Client.
func NewClientWithHTTP(baseURL string, client *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Upload sends content as the multipart field "file".
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("copy upload content: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	_, err = c.do(req)
	return err
}

// Ask forwards question and returns the service's answer.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	payload, err := json.Marshal(askRequest{Question: question})
	if err != nil {
		return "", fmt.Errorf("encode ask request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ask", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var resp askResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode ask response: %w", err)
	}

	return resp.Answer, nil
}

// do executes req. Client errors become *model.UpstreamError carrying the
// service's own message; anything else is a plain error.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("document service request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read document service response: %w", err)
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var e errorResponse
		if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return nil, &model.UpstreamError{StatusCode: resp.StatusCode, Message: e.Error}
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("document service failed: status=%d", resp.StatusCode)
	}

	return body, nil
}
