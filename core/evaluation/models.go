package evaluation

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/assessment"
	"github.com/trezcool/milestone/core/child"
)

type Evaluation struct {
	ID                    int            `json:"id" db:"id"`
	AssessmentID          int            `json:"assessment_id" db:"assessment_id"`
	BackgroundInformation string         `json:"background_information" db:"background_information"`
	Recommendations       pq.StringArray `json:"recommendations" db:"recommendations"`
	Websites              pq.StringArray `json:"websites" db:"websites"`
	Status                Status         `json:"status" db:"status"`
	CreatedAt             time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at" db:"updated_at"`
}

// NewBackground contains the narrative captured before the evaluation is finalized.
type NewBackground struct {
	BackgroundInformation string `json:"background_information" validate:"required,notblank"`
}

func (nb *NewBackground) Validate(validate *validator.Validate) error {
	nb.BackgroundInformation = core.CleanString(nb.BackgroundInformation)
	return validate.Struct(nb)
}

// FinalizeEvaluation contains what completes an Evaluation. BackgroundInformation overwrites the draft's when set.
type FinalizeEvaluation struct {
	BackgroundInformation *string  `json:"background_information"`
	Recommendations       []string `json:"recommendations" validate:"required,min=1,dive,notblank"`
	Websites              []string `json:"websites" validate:"required,min=1,dive,notblank"`
}

func (fe *FinalizeEvaluation) Validate(validate *validator.Validate) error {
	if fe.BackgroundInformation != nil {
		bg := core.CleanString(*fe.BackgroundInformation)
		fe.BackgroundInformation = &bg
	}
	return validate.Struct(fe)
}

// ReportPayload is the evaluation merged with the live aggregation of its assessment.
type ReportPayload struct {
	ID                    int              `json:"id"`
	CreatedAt             time.Time        `json:"created_at"`
	BackgroundInformation string           `json:"background_information"`
	Recommendations       []string         `json:"recommendations"`
	Websites              []string         `json:"websites"`
	Status                Status           `json:"status"`
	Assessment            ReportAssessment `json:"assessment"`
}

type ReportAssessment struct {
	ID             int                          `json:"id"`
	ChildName      string                       `json:"child_name"`
	AssessmentDate core.Date                    `json:"assessment_date"`
	AssessedAges   []int                        `json:"assessed_ages"`
	Categories     []assessment.CategorySummary `json:"categories"`
}

// Document is everything the evaluation renderer lays out.
type Document struct {
	ReportPayload
	Child    child.Child
	Date     string // day of rendering, "January 2, 2006"
	Center   core.CenterConfig
	Logo     []byte // PNG; nil if not configured
	Filename string
}

// Defaults holds the standard suggestions offered while writing an evaluation.
type Defaults struct {
	Recommendations []string `json:"recommendations"`
	Websites        []string `json:"websites"`
}
