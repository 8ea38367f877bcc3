package services

import (
	"errors"
	"strings"
)

// Error markers classify failures at the operator boundary. Every error that
// reaches the console or CLI wraps exactly one of these as its outermost marker.
var (
	ErrNetwork           = errors.New("network error")
	ErrCameraUnavailable = errors.New("camera unavailable")
	ErrInvalidSelection  = errors.New("invalid selection")
	ErrClassification    = errors.New("classification error")
	ErrCommit            = errors.New("commit error")
	ErrInvalidLabel      = errors.New("invalid label")
	ErrTimeout           = errors.New("timeout")
)

// Error carries a marker plus the component/operation that produced it. The
// Detail is the operator-facing reason, such as the server's own error text.
type Error struct {
	Marker    error
	Component string
	Operation string
	Detail    string
	Err       error
}

// Wrap builds an error that includes component context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, component, operation, detail string, err error) error {
	if marker == nil {
		marker = ErrNetwork
	}
	return &Error{
		Marker:    marker,
		Component: strings.TrimSpace(component),
		Operation: strings.TrimSpace(operation),
		Detail:    strings.TrimSpace(detail),
		Err:       err,
	}
}

func (e *Error) Error() string {
	parts := make([]string, 0, 5)
	parts = append(parts, e.Marker.Error())
	for _, part := range []string{e.Component, e.Operation, e.Detail} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 1 {
		parts = append(parts, "service failure")
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes both the marker and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

// Message renders err as the single line shown to the operator.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		return err.Error()
	}
	detail := svcErr.Detail
	if detail == "" && svcErr.Err != nil {
		detail = Message(svcErr.Err)
	}
	prefix := markerPrefix(svcErr.Marker)
	switch {
	case prefix == "":
		return detail
	case detail == "":
		return prefix
	default:
		return prefix + ": " + detail
	}
}

func markerPrefix(marker error) string {
	switch {
	case errors.Is(marker, ErrInvalidLabel):
		return ""
	case errors.Is(marker, ErrClassification):
		return "Error processing image"
	case errors.Is(marker, ErrCommit):
		return "Error confirming name"
	case errors.Is(marker, ErrInvalidSelection):
		return "Invalid selection"
	case errors.Is(marker, ErrCameraUnavailable):
		return "Camera unavailable"
	case errors.Is(marker, ErrTimeout):
		return "Timed out"
	default:
		return "Backend unreachable"
	}
}

// Kind returns a short stable name for the outermost marker, used in journal
// rows and log fields.
func Kind(err error) string {
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		if err == nil {
			return ""
		}
		return "unknown"
	}
	switch svcErr.Marker {
	case ErrNetwork:
		return "network"
	case ErrCameraUnavailable:
		return "camera_unavailable"
	case ErrInvalidSelection:
		return "invalid_selection"
	case ErrClassification:
		return "classification"
	case ErrCommit:
		return "commit"
	case ErrInvalidLabel:
		return "invalid_label"
	case ErrTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}
