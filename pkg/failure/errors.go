package failure

import "errors"

type Severity int

// caller control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

type ClassifiedError interface {
	error
	Severity() Severity
}

// IsRecoverable reports whether err, or any error it wraps, is a
// ClassifiedError with SeverityRecoverable. Unclassified errors are fatal.
func IsRecoverable(err error) bool {
	var classified ClassifiedError
	if !errors.As(err, &classified) {
		return false
	}
	return classified.Severity() == SeverityRecoverable
}
