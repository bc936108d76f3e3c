package assessment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/skill"
)

type Assessment struct {
	ID             int        `json:"id" db:"id"`
	ChildID        int        `json:"child_id" db:"child_id"`
	AssessmentDate core.Date  `json:"assessment_date" db:"assessment_date"`
	Notes          *string    `json:"notes" db:"notes"`
	SelectedAges   []int      `json:"selected_ages" db:"-"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	Responses      []Response `json:"responses,omitempty" db:"-"`
}

// Response is one answer of an Assessment. Question (and its Category) is hydrated by the Repository.
type Response struct {
	ID           int             `json:"id" db:"id"`
	AssessmentID int             `json:"assessment_id" db:"assessment_id"`
	QuestionID   int             `json:"question_id" db:"question_id"`
	Answer       Answer          `json:"response" db:"response"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	Question     *skill.Question `json:"question,omitempty" db:"-"`
}

// NewAssessment contains information needed to record a screening session.
type NewAssessment struct {
	AssessmentDate core.Date     `json:"assessment_date" validate:"required"`
	Notes          *string       `json:"notes"`
	SelectedAges   []int         `json:"selected_ages" validate:"required,min=1,dive,min=1,max=12"`
	Responses      []NewResponse `json:"responses" validate:"required,min=1,dive"`
}

type NewResponse struct {
	QuestionID int    `json:"question_id" validate:"required"`
	Response   string `json:"response" validate:"required,answer"`
}

func (na *NewAssessment) Validate(validate *validator.Validate) error {
	if na.Notes != nil {
		notes := core.CleanString(*na.Notes)
		if notes == "" {
			na.Notes = nil
		} else {
			na.Notes = &notes
		}
	}
	return validate.Struct(na)
}

type Filter struct {
	ChildID int
}
