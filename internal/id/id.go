package id

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const uuidLen = 36

// IsRemote reports whether ref is a remote document or attachment ID rather
// than a local file path. Remote IDs are canonical hyphenated UUIDs.
func IsRemote(ref string) bool {
	if len(ref) != uuidLen {
		return false
	}
	_, err := uuid.Parse(ref)
	return err == nil
}

// FromFileName returns the attachment ID encoded in a materialized
// attachment's file name (<uuid>.<ext>), or "" if the name is not one.
func FromFileName(name string) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if !IsRemote(stem) {
		return ""
	}
	return strings.ToLower(stem)
}

// HasPrefix reports whether a file name belongs to the given attachment ID,
// i.e. it is exactly the ID or the ID followed by an extension.
func HasPrefix(name, attachmentID string) bool {
	if len(name) < len(attachmentID) || !strings.EqualFold(name[:len(attachmentID)], attachmentID) {
		return false
	}
	rest := name[len(attachmentID):]
	return rest == "" || strings.HasPrefix(rest, ".")
}
