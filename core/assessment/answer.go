package assessment

import (
	"fmt"

	"github.com/trezcool/milestone/core"
)

// Answer is the code recorded for one checklist question.
type Answer string

const (
	AnswerCan         Answer = "can"
	AnswerCannot      Answer = "cannot"
	AnswerEmerging    Answer = "emerging"
	AnswerNotObserved Answer = "not_observed"
)

var Answers = []Answer{AnswerCan, AnswerCannot, AnswerEmerging, AnswerNotObserved}

func (a Answer) Valid() bool {
	switch a {
	case AnswerCan, AnswerCannot, AnswerEmerging, AnswerNotObserved:
		return true
	}
	return false
}

// IsPositive reports whether `a` counts towards competency. Only `can` does.
func (a Answer) IsPositive() bool {
	return a == AnswerCan
}

// ParseAnswer rejects anything outside the four answer codes. Codes are case-sensitive and never trimmed.
func ParseAnswer(s string) (Answer, error) {
	a := Answer(s)
	if !a.Valid() {
		err := fmt.Errorf("invalid response %q: must be one of can, cannot, emerging, not_observed", s)
		return "", core.NewValidationError(err, core.FieldError{Field: "response", Error: err.Error()})
	}
	return a, nil
}
