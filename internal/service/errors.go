package service

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidStatus     = errors.New("post must be approved or scheduled to publish")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrPublishInProgress = errors.New("a publish run is already in progress")
)

// PublishFailure is returned when a post was marked failed. The message is
// the same text stored on the post row.
type PublishFailure struct {
	Message string
}

func (e *PublishFailure) Error() string {
	return e.Message
}
