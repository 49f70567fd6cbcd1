// Package attachment rewrites embedded image references between their remote
// form (/api/attachments.redirect?id=<uuid>) and local relative paths. All
// functions are pure text transforms.
package attachment

import (
	"regexp"
	"strings"

	"github.com/rogersnm/docsync/internal/id"
)

// RedirectPath is the remote path prefix that serves an attachment by ID.
const RedirectPath = "/api/attachments.redirect?id="

var (
	remotePattern   = regexp.MustCompile(`!\[([^\]]*)\]\(((?:https?://[^\s)/]+)?/api/attachments\.redirect\?id=([0-9a-fA-F-]{36}))(?:\s+"([^"]*)")?\)`)
	relativePattern = regexp.MustCompile(`!\[([^\]]*)\]\((\./[^\s)]+)(?:\s+"([^"]*)")?\)`)
)

// Attachment is a remote attachment reference found in a document body.
type Attachment struct {
	ID                string
	Caption           string
	URL               string
	OriginalReference string
	// Annotation is the optional quoted title, used by the remote editor for
	// size and alignment (e.g. " =320x240").
	Annotation string
	// LocalPath is set by the caller once the attachment is on disk.
	LocalPath string
}

// Image is a relative image reference found in a document body.
type Image struct {
	Caption              string
	RelativePath         string
	OriginalReference    string
	Annotation           string
	IsExistingAttachment bool
	AttachmentID         string
	// RemoteURL is the exact reference the remote body used for this
	// attachment, when known. See WithRemoteURLs.
	RemoteURL string
}

// ParseAttachments extracts every remote attachment reference from body.
func ParseAttachments(body string) []Attachment {
	var out []Attachment
	for _, m := range remotePattern.FindAllStringSubmatch(body, -1) {
		out = append(out, Attachment{
			Caption:           m[1],
			URL:               m[2],
			ID:                strings.ToLower(m[3]),
			Annotation:        m[4],
			OriginalReference: m[0],
		})
	}
	return out
}

// ParseRelativeImages extracts every ./-relative image reference from body.
// An image whose file name is a UUID is an attachment that already exists
// remotely.
func ParseRelativeImages(body string) []Image {
	var out []Image
	for _, m := range relativePattern.FindAllStringSubmatch(body, -1) {
		img := Image{
			Caption:           m[1],
			RelativePath:      m[2],
			Annotation:        m[3],
			OriginalReference: m[0],
		}
		if aid := id.FromFileName(img.RelativePath); aid != "" {
			img.IsExistingAttachment = true
			img.AttachmentID = aid
		}
		out = append(out, img)
	}
	return out
}

// ToLocalPaths replaces each attachment that has a LocalPath with a reference
// to that path, keeping caption and annotation.
func ToLocalPaths(body string, attachments []Attachment) string {
	for _, a := range attachments {
		if a.LocalPath == "" {
			continue
		}
		body = strings.ReplaceAll(body, a.OriginalReference, Format(a.Caption, a.LocalPath, a.Annotation))
	}
	return body
}

// ToRemoteReferences replaces images that already exist remotely with their
// remote reference. Images not yet uploaded are left untouched. An image
// without a RemoteURL gets the host-less redirect path.
func ToRemoteReferences(body string, images []Image) string {
	for _, img := range images {
		if !img.IsExistingAttachment {
			continue
		}
		target := img.RemoteURL
		if target == "" {
			target = RedirectPath + img.AttachmentID
		}
		body = strings.ReplaceAll(body, img.OriginalReference, Format(img.Caption, target, img.Annotation))
	}
	return body
}

// WithRemoteURLs returns a copy of images where each existing attachment
// carries the URL it had in attachments, so converting back reproduces the
// remote host and ID case.
func WithRemoteURLs(images []Image, attachments []Attachment) []Image {
	urls := make(map[string]string, len(attachments))
	for _, a := range attachments {
		if _, ok := urls[a.ID]; !ok {
			urls[a.ID] = a.URL
		}
	}
	out := make([]Image, len(images))
	for i, img := range images {
		if img.IsExistingAttachment {
			if url, ok := urls[strings.ToLower(img.AttachmentID)]; ok {
				img.RemoteURL = url
			}
		}
		out[i] = img
	}
	return out
}

// Replace swaps a single image reference for one pointing at target.
func Replace(body string, img Image, target string) string {
	return strings.ReplaceAll(body, img.OriginalReference, Format(img.Caption, target, img.Annotation))
}

// Format renders a markdown image reference.
func Format(caption, target, annotation string) string {
	if annotation == "" {
		return "![" + caption + "](" + target + ")"
	}
	return "![" + caption + "](" + target + ` "` + annotation + `")`
}

// IDFromURL returns the attachment ID in a remote attachment URL, or "".
func IDFromURL(url string) string {
	i := strings.Index(url, RedirectPath)
	if i < 0 {
		return ""
	}
	rest := url[i+len(RedirectPath):]
	if j := strings.IndexAny(rest, "&#"); j >= 0 {
		rest = rest[:j]
	}
	if !id.IsRemote(rest) {
		return ""
	}
	return strings.ToLower(rest)
}
