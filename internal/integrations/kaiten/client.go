// Package kaiten pushes generated reports to a card on a Kaiten board.
package kaiten

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// File is one attachment to upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// AttachFiles uploads each file to the card, stopping at the first failure.
func (c *Client) AttachFiles(ctx context.Context, cardID string, files []File) error {
	for _, file := range files {
		if err := c.attach(ctx, cardID, file); err != nil {
			return fmt.Errorf("attach %s: %w", file.Name, err)
		}
	}
	return nil
}

func (c *Client) attach(ctx context.Context, cardID string, file File) error {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", file.Name)
	if err != nil {
		return err
	}
	if _, err := part.Write(file.Data); err != nil {
		return err
	}
	if err := form.Close(); err != nil {
		return err
	}
	_, err = c.doRequest(ctx, http.MethodPut, c.cardURL(cardID, "files"), form.FormDataContentType(), &body)
	return err
}

// Comment posts text as a card comment.
func (c *Client) Comment(ctx context.Context, cardID, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	_, err = c.doRequest(ctx, http.MethodPost, c.cardURL(cardID, "comments"), "application/json", bytes.NewReader(payload))
	return err
}

func (c *Client) cardURL(cardID, resource string) string {
	return fmt.Sprintf("%s/api/latest/cards/%s/%s", c.BaseURL, url.PathEscape(cardID), resource)
}

func (c *Client) doRequest(ctx context.Context, method, target, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("kaiten api error %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
