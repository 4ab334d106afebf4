package upload

import "fmt"

// SizeExceededError rejects a file larger than the caller's limit. It is
// raised locally, before any bytes travel.
type SizeExceededError struct {
	Name string
	Size int64
	Max  int64
}

func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("%s is %d bytes, limit is %d", e.Name, e.Size, e.Max)
}

// UnsupportedTypeError rejects a file whose type is not accepted.
type UnsupportedTypeError struct {
	Name     string
	MIMEType string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("%s has unsupported type %s", e.Name, e.MIMEType)
}

// TooManyImagesError rejects a whole batch that would exceed the image
// capacity. Raised before any per-file validation.
type TooManyImagesError struct {
	Current int
	Adding  int
	Max     int
}

func (e *TooManyImagesError) Error() string {
	return fmt.Sprintf("adding %d images to %d would exceed the limit of %d", e.Adding, e.Current, e.Max)
}

// CommitError is a failed server commit after the local preview was
// already shown; the preview has been retracted.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("upload commit failed: %v", e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
