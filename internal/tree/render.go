package tree

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rogersnm/docsync/internal/model"
)

var (
	syncedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")) // white
	newStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // grey
)

func docStyle(d *model.ParsedDocument) lipgloss.Style {
	if d.Metadata.RemoteID == "" {
		return newStyle
	}
	return syncedStyle
}

// RenderASCII draws the document hierarchy as an ASCII tree. Documents not
// yet created remotely are marked "(new)".
func RenderASCII(docs []model.ParsedDocument) string {
	if len(docs) == 0 {
		return "No documents."
	}

	byIdentity := make(map[string]bool, len(docs))
	for i := range docs {
		byIdentity[docs[i].Identity()] = true
	}
	children := make(map[string][]*model.ParsedDocument)
	var roots []*model.ParsedDocument
	for i := range docs {
		d := &docs[i]
		if d.ParentDocumentID == "" || !byIdentity[d.ParentDocumentID] {
			roots = append(roots, d)
			continue
		}
		children[d.ParentDocumentID] = append(children[d.ParentDocumentID], d)
	}

	var sb strings.Builder
	for i, root := range roots {
		renderNode(&sb, root, children, "", i == len(roots)-1, true)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderNode(sb *strings.Builder, d *model.ParsedDocument, children map[string][]*model.ParsedDocument, prefix string, isLast, top bool) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}
	if top {
		connector = ""
	}

	label := d.Metadata.Title
	if d.Metadata.RemoteID == "" {
		label += " (new)"
	}
	sb.WriteString(prefix + connector + docStyle(d).Render(label) + " " + pathStyle.Render(fmt.Sprintf("[%s]", d.RelativePath)) + "\n")

	kids := children[d.Identity()]
	childPrefix := prefix
	switch {
	case top:
		childPrefix = ""
	case isLast:
		childPrefix += "    "
	default:
		childPrefix += "│   "
	}
	for i, k := range kids {
		renderNode(sb, k, children, childPrefix, i == len(kids)-1, false)
	}
}
