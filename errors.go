package scankit

import (
	"errors"
	"fmt"
)

// Archive handling errors. Each kind is distinct so callers can react to
// the specific failure rather than a conflated "extraction failed".
var (
	// ErrUnknownFormat means neither the file name nor the magic bytes
	// identified a supported container format. This is a normal outcome
	// for arbitrary uploads, not a bug.
	ErrUnknownFormat = errors.New("unrecognized archive format")

	// ErrCorruptArchive means the container codec rejected the file.
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrPassphraseRequired means the archive is encrypted and no
	// passphrase was supplied.
	ErrPassphraseRequired = errors.New("passphrase required")

	// ErrPassphraseRejected means the supplied passphrase did not decrypt
	// the archive.
	ErrPassphraseRejected = errors.New("passphrase rejected")

	// ErrPassphraseNotFound is returned by FindPassphrase after every
	// candidate has been tried without success.
	ErrPassphraseNotFound = errors.New("no candidate passphrase matched")
)

// ExtractionError records an error together with the operation and archive
// path that caused it.
type ExtractionError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func extractionErr(op, path string, err error) error {
	return &ExtractionError{Op: op, Path: path, Err: err}
}

// IsPassphraseError reports whether an error indicates a missing or wrong
// passphrase, i.e. a condition passphrase brute force could resolve.
func IsPassphraseError(err error) bool {
	return errors.Is(err, ErrPassphraseRequired) || errors.Is(err, ErrPassphraseRejected)
}

// IsFormatError reports whether an error indicates an unrecognized or
// corrupt container.
func IsFormatError(err error) bool {
	return errors.Is(err, ErrUnknownFormat) || errors.Is(err, ErrCorruptArchive)
}
