package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

type sipClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient() *sipClient {
	return &sipClient{
		baseURL: baseURL(),
		token:   resolvedToken(),
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// apiError carries a non-2xx response.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// do sends a request and returns the response body of a 2xx reply.
func (c *sipClient) do(method, path string, body io.Reader, contentType string) ([]byte, http.Header, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("request creation failed: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &apiError{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	return data, resp.Header, nil
}

// errorMessage extracts {"error": ...} or {"message": ...} from a body.
func errorMessage(body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return string(bytes.TrimSpace(body))
}

// getJSON performs a GET request and decodes the response.
func (c *sipClient) getJSON(path string, v any) error {
	data, _, err := c.do(http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	return decode(data, v)
}

// sendJSON performs a request with a JSON body and decodes the response.
func (c *sipClient) sendJSON(method, path string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	data, _, err := c.do(method, path, bytes.NewReader(payload), "application/json")
	if err != nil {
		return err
	}
	return decode(data, v)
}

// uploadFile posts file as the multipart "file" field.
func (c *sipClient) uploadFile(path, file string, v any) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(file))
	if err != nil {
		return err
	}
	if _, err := fw.Write(content); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	data, _, err := c.do(http.MethodPost, path, &buf, mw.FormDataContentType())
	if err != nil {
		return err
	}
	return decode(data, v)
}

// download performs a GET request and returns the raw body.
func (c *sipClient) download(path string) ([]byte, error) {
	data, _, err := c.do(http.MethodGet, path, nil, "")
	return data, err
}

func decode(data []byte, v any) error {
	if v == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode error: %w", err)
	}
	return nil
}
