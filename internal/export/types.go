// Package export renders invoices and proposals as PDF documents.
package export

import "errors"

// Kind selects what to export.
type Kind string

const (
	KindInvoice  Kind = "invoice"
	KindProposal Kind = "proposal"
)

// Request contains parameters for an export operation
type Request struct {
	Kind Kind
	ID   string
	// Archive uploads the rendered PDF to object storage as well as
	// returning it.
	Archive bool
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
	// ArchiveKey is set when the PDF was also stored in the archive bucket.
	ArchiveKey string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
