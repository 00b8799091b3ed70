// Package pdftext pulls plain text out of uploaded resume PDFs.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// MinTextLength is the shortest trimmed text accepted as a readable resume.
const MinTextLength = 10

// ErrUnreadable is returned when the document yields too little text,
// which usually means a scanned, image-only PDF.
var ErrUnreadable = errors.New("Could not extract text from PDF. The file may be image-based.")

var (
	inlineSpace = regexp.MustCompile(`[ \t\r\f\v]+`)
	blankLines  = regexp.MustCompile(`\n+`)
)

// Extract returns the normalized text of every page merged together.
func Extract(data []byte) (text string, err error) {
	// 解析器遇到损坏的交叉引用表时会 panic。
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	rs, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rs); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	text = normalizeWhitespace(buf.String())
	if len([]rune(text)) < MinTextLength {
		return "", ErrUnreadable
	}
	return text, nil
}

func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00A0", " ")
	s = inlineSpace.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}
