package outline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// imageExts pins the extension for common image types; mime.ExtensionsByType
// returns alphabetically sorted candidates (".jfif" for JPEG).
var imageExts = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/avif":    ".avif",
}

type attachmentUpload struct {
	UploadURL  string            `json:"uploadUrl"`
	Form       map[string]string `json:"form"`
	Attachment struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"attachment"`
}

// UploadAttachment registers a new attachment for documentID, uploads the file
// at filePath and returns the attachment's URL.
func (c *Client) UploadAttachment(ctx context.Context, documentID, filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filePath, err)
	}
	name := filepath.Base(filePath)
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	up, err := call[attachmentUpload](ctx, c, "attachments.create", map[string]any{
		"name":        name,
		"documentId":  documentID,
		"contentType": contentType,
		"size":        len(data),
	})
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range up.Form {
		if err := w.WriteField(k, v); err != nil {
			return "", fmt.Errorf("building upload form: %w", err)
		}
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	target, sameHost := c.resolve(up.UploadURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if sameHost {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	if err := drain("attachments.upload", resp); err != nil {
		return "", err
	}
	return up.Attachment.URL, nil
}

// DownloadAttachmentToDirectory saves an attachment as dir/<id><ext>, with the
// extension taken from the response content type, and returns its path.
func (c *Client) DownloadAttachmentToDirectory(ctx context.Context, attachmentID, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/attachments.redirect?id="+url.QueryEscape(attachmentID), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading attachment %s: %w", attachmentID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", remoteError("attachments.redirect", resp)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, attachmentID+extensionFor(resp.Header.Get("Content-Type")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	if ext, ok := imageExts[mediaType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// resolve makes a possibly relative upload URL absolute and reports whether it
// points at the API host, which is the only host that gets our credentials.
func (c *Client) resolve(uploadURL string) (string, bool) {
	u, err := url.Parse(uploadURL)
	if err != nil || !u.IsAbs() {
		return c.baseURL + "/" + strings.TrimLeft(uploadURL, "/"), true
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return uploadURL, false
	}
	return uploadURL, u.Host == base.Host
}
