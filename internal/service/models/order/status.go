package order

import "errors"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

var ErrInvalidStatus = errors.New("invalid order status")

func (s Status) String() string {
	return string(s)
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusRefunded:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}
