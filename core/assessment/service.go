package assessment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/child"
	"github.com/trezcool/milestone/core/skill"
)

var (
	// errors
	ErrNotFound           = errors.New("assessment not found")
	errInvalidQuestion    = "the selected question is invalid"
	errDuplicatedQuestion = "this question has already been answered in this assessment"
)

type (
	Repository interface {
		// CreateAssessment inserts the assessment and its responses atomically.
		CreateAssessment(ctx context.Context, a Assessment) (Assessment, error)
		GetAssessmentByID(ctx context.Context, id int) (Assessment, error)
		// QueryAssessments returns the matching assessments, newest first, without their responses.
		QueryAssessments(ctx context.Context, filter Filter) ([]Assessment, error)
		// DeleteAssessment removes the assessment, its responses and its evaluation atomically.
		DeleteAssessment(ctx context.Context, id int) error
		// LoadResponses returns the assessment's responses in insertion order, each hydrated with its Question
		// and the Question's Category.
		LoadResponses(ctx context.Context, assessmentID int) ([]Response, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, childID int, na NewAssessment) (Assessment, error)
		Get(ctx context.Context, id int) (Assessment, error)
		ListForChild(ctx context.Context, childID int) ([]Assessment, error)
		Delete(ctx context.Context, id int) error
		Results(ctx context.Context, id int) ([]CategorySummary, error)
		Stats(ctx context.Context, id int) ([]CategoryStats, error)
	}

	Service struct {
		repo      Repository
		childRepo child.Repository
		skillRepo skill.Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, childRepo child.Repository, skillRepo skill.Repository) *Service {
	return &Service{repo: repo, childRepo: childRepo, skillRepo: skillRepo}
}

// Create records a screening session for the child. Every answered question must exist and be answered once.
func (svc *Service) Create(ctx context.Context, childID int, na NewAssessment) (Assessment, error) {
	if _, err := svc.childRepo.GetChildByID(ctx, childID); err != nil {
		return Assessment{}, err
	}

	var fieldErrs []core.FieldError
	seen := make(map[int]bool, len(na.Responses))
	ids := make([]int, 0, len(na.Responses))
	answers := make([]Answer, len(na.Responses))
	for i, nr := range na.Responses {
		a, err := ParseAnswer(nr.Response)
		if err != nil {
			fieldErrs = append(fieldErrs, core.FieldError{Field: fmt.Sprintf("responses[%d].response", i), Error: err.Error()})
		}
		answers[i] = a
		if seen[nr.QuestionID] {
			fieldErrs = append(fieldErrs, core.FieldError{Field: fmt.Sprintf("responses[%d].question_id", i), Error: errDuplicatedQuestion})
			continue
		}
		seen[nr.QuestionID] = true
		ids = append(ids, nr.QuestionID)
	}

	missing, err := svc.skillRepo.MissingQuestionIDs(ctx, ids)
	if err != nil {
		return Assessment{}, errors.Wrap(err, "checking questions")
	}
	if len(missing) > 0 {
		isMissing := make(map[int]bool, len(missing))
		for _, id := range missing {
			isMissing[id] = true
		}
		for i, nr := range na.Responses {
			if isMissing[nr.QuestionID] {
				fieldErrs = append(fieldErrs, core.FieldError{Field: fmt.Sprintf("responses[%d].question_id", i), Error: errInvalidQuestion})
			}
		}
	}
	if len(fieldErrs) > 0 {
		sort.SliceStable(fieldErrs, func(i, j int) bool { return fieldErrs[i].Field < fieldErrs[j].Field })
		return Assessment{}, core.NewValidationError(nil, fieldErrs...)
	}

	now := time.Now().UTC()
	a := Assessment{
		ChildID:        childID,
		AssessmentDate: na.AssessmentDate,
		Notes:          na.Notes,
		SelectedAges:   uniqueAges(na.SelectedAges),
		CreatedAt:      now,
		UpdatedAt:      now,
		Responses:      make([]Response, 0, len(na.Responses)),
	}
	for i, nr := range na.Responses {
		a.Responses = append(a.Responses, Response{QuestionID: nr.QuestionID, Answer: answers[i], CreatedAt: now})
	}
	return svc.repo.CreateAssessment(ctx, a)
}

// Get returns the assessment with its hydrated responses.
func (svc *Service) Get(ctx context.Context, id int) (Assessment, error) {
	a, err := svc.repo.GetAssessmentByID(ctx, id)
	if err != nil {
		return Assessment{}, err
	}
	if a.Responses, err = svc.repo.LoadResponses(ctx, id); err != nil {
		return Assessment{}, errors.Wrap(err, "loading responses")
	}
	return a, nil
}

func (svc *Service) ListForChild(ctx context.Context, childID int) ([]Assessment, error) {
	if _, err := svc.childRepo.GetChildByID(ctx, childID); err != nil {
		return nil, err
	}
	return svc.repo.QueryAssessments(ctx, Filter{ChildID: childID})
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteAssessment(ctx, id)
}

// Results aggregates the live responses of the assessment.
func (svc *Service) Results(ctx context.Context, id int) ([]CategorySummary, error) {
	responses, err := svc.responses(ctx, id)
	if err != nil {
		return nil, err
	}
	return Summarize(responses)
}

func (svc *Service) Stats(ctx context.Context, id int) ([]CategoryStats, error) {
	responses, err := svc.responses(ctx, id)
	if err != nil {
		return nil, err
	}
	return Stats(responses)
}

func (svc *Service) responses(ctx context.Context, id int) ([]Response, error) {
	if _, err := svc.repo.GetAssessmentByID(ctx, id); err != nil {
		return nil, err
	}
	responses, err := svc.repo.LoadResponses(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "loading responses")
	}
	return responses, nil
}

func uniqueAges(ages []int) []int {
	seen := make(map[int]bool, len(ages))
	unique := make([]int, 0, len(ages))
	for _, age := range ages {
		if !seen[age] {
			seen[age] = true
			unique = append(unique, age)
		}
	}
	sort.Ints(unique)
	return unique
}
