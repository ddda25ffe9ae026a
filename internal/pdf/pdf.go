// Package pdf turns debate attachments into plain text for the RAG
// pipeline.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	rscpdf "rsc.io/pdf"

	"debatehub/internal/model"
)

// AttachmentText extracts the text content of an attachment. PDF
// attachments are parsed, text/* attachments pass through as-is; any
// other mime type is skipped (ok=false). A malformed PDF also reports
// ok=false rather than failing the request.
func AttachmentText(a model.Attachment) (string, bool) {
	switch {
	case a.MimeType == "application/pdf":
		txt, err := ExtractText(a.Data)
		if err != nil {
			return "", false
		}
		return Sanitize(txt), true
	case strings.HasPrefix(a.MimeType, "text/"):
		return Sanitize(string(a.Data)), true
	default:
		return "", false
	}
}

// ExtractText reads every page of a PDF. rsc.io/pdf panics on malformed
// input, so the panic is converted to an error here.
func ExtractText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf: %v", r)
		}
	}()
	reader, err := rscpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, t := range page.Content().Text {
			sb.WriteString(strings.ReplaceAll(t.S, "\x00", ""))
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// Sanitize collapses whitespace runs into single spaces.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.Join(strings.Fields(s), " ")
}
