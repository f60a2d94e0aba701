// Package export renders documents to PDF through headless Chrome.
package export

import "errors"

type Format string

const FormatPDF Format = "pdf"

// Request names the document to export and the desired output format.
type Request struct {
	CollectionID string
	DocumentID   string
	Format       Format
}

// Result is a finished export ready to stream as a download.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing means the Chromium binary the PDF path shells out
// to is not installed on this host.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
