// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
)

// UploadResult describes a file the agent accepted.
type UploadResult struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	URL         string `json:"url,omitempty"`
}

// Upload sends a file to POST /upload as multipart form field "file".
// Files above the configured limit are rejected before any request is made.
func (c *Client) Upload(ctx context.Context, path string) (*UploadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if c.uploadMax > 0 && int64(len(data)) > c.uploadMax {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, filepath.Base(path), len(data), c.uploadMax)
	}

	name := filepath.Base(path)
	contentType := DetectContentType(name, data)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	payload := body.Bytes()

	resp, err := c.doWithRetry(ctx, c.httpClient, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, "/upload", bytes.NewReader(payload), mw.FormDataContentType())
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	result := &UploadResult{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return nil, fmt.Errorf("failed to parse upload response: %w", err)
		}
	}
	if result.Name == "" {
		result.Name = name
	}
	if result.Size == 0 {
		result.Size = int64(len(data))
	}
	if result.ContentType == "" {
		result.ContentType = contentType
	}
	return result, nil
}

// DetectContentType guesses a MIME type from the file extension, falling
// back to content sniffing.
func DetectContentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			return mediaType
		}
		return ct
	}
	sniff := data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	ct := http.DetectContentType(sniff)
	if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
		return mediaType
	}
	return ct
}
