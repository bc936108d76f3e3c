package evaluation

import (
	"database/sql/driver"
	"fmt"

	"github.com/pkg/errors"
)

// Status is the lifecycle state of an Evaluation.
type Status string

const (
	// StatusReadyForEvaluation means the background is captured and the verdict is pending.
	StatusReadyForEvaluation Status = "ready_for_evaluation"
	// StatusCompleted means recommendations and websites are final. It is terminal.
	StatusCompleted Status = "completed"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusReadyForEvaluation, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("invalid evaluation status %q", s)
}

// CanTransitionTo reports whether an evaluation in `st` may move to `next`.
// Staying in the same state is always allowed: writes overwrite in place.
func (st Status) CanTransitionTo(next Status) bool {
	switch st {
	case StatusReadyForEvaluation:
		return next == StatusReadyForEvaluation || next == StatusCompleted
	case StatusCompleted:
		return next == StatusCompleted
	default:
		return false
	}
}

func (st Status) Value() (driver.Value, error) {
	return string(st), nil
}

func (st *Status) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return errors.Errorf("cannot scan %T into evaluation.Status", src)
	}
	parsed, err := ParseStatus(s)
	if err != nil {
		return err
	}
	*st = parsed
	return nil
}
