package evaluation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/assessment"
	"github.com/trezcool/milestone/core/child"
)

var (
	// errors
	ErrNotFound            = errors.New("evaluation not found")
	ErrInvalidTransition   = errors.New("invalid evaluation status transition")
	ErrNotCompleted        = errors.New("evaluation is not completed yet")
	errBlankBackground     = "background information cannot be blank"
	errEmptyList           = "at least one item is required"
	errBlankItem           = "items cannot be blank"
	errNoGuardianEmail     = "the child has no email address"
	errAssessmentNotExists = "assessment %d does not exist"

	// NowFunc returns the day documents are rendered on.
	NowFunc = time.Now
)

type (
	Repository interface {
		// GetEvaluationByAssessment returns ErrNotFound when the assessment has no evaluation.
		GetEvaluationByAssessment(ctx context.Context, assessmentID int) (Evaluation, error)
		// UpsertEvaluation locks the assessment row, loads its evaluation (if any), lets `apply` modify it
		// and saves the result, all in one transaction. `exists` is false when `ev` is new.
		// Returns assessment.ErrNotFound if the assessment does not exist, and a *core.ConflictError if
		// a concurrent writer inserted the evaluation first.
		UpsertEvaluation(ctx context.Context, assessmentID int, apply func(ev *Evaluation, exists bool) error) (Evaluation, error)
	}

	// Renderer lays an evaluation Document out as PDF.
	Renderer interface {
		RenderEvaluation(w io.Writer, doc Document) error
	}

	ServiceInterface interface {
		RecordBackground(ctx context.Context, assessmentID int, text string) (Evaluation, error)
		Finalize(ctx context.Context, assessmentID int, fe FinalizeEvaluation) (Evaluation, error)
		Get(ctx context.Context, assessmentID int) (Evaluation, error)
		BuildReportPayload(ctx context.Context, ev Evaluation) (ReportPayload, error)
		BuildDocument(ctx context.Context, ev Evaluation, center core.CenterConfig) (Document, error)
		RenderDocument(ctx context.Context, w io.Writer, ev Evaluation, center core.CenterConfig) (string, error)
		EmailReport(ctx context.Context, ev Evaluation, center core.CenterConfig) error
		Defaults() Defaults
	}

	Service struct {
		repo       Repository
		assessRepo assessment.Repository
		childRepo  child.Repository
		renderer   Renderer
		mailSvc    core.EmailService
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(
	repo Repository,
	assessRepo assessment.Repository,
	childRepo child.Repository,
	renderer Renderer,
	mailSvc core.EmailService,
) *Service {
	return &Service{
		repo:       repo,
		assessRepo: assessRepo,
		childRepo:  childRepo,
		renderer:   renderer,
		mailSvc:    mailSvc,
	}
}

// RecordBackground saves the background narrative of the assessment's evaluation, creating the draft if needed.
// An existing evaluation keeps its status.
func (svc *Service) RecordBackground(ctx context.Context, assessmentID int, text string) (Evaluation, error) {
	text = core.CleanString(text)
	if text == "" {
		err := errors.New(errBlankBackground)
		return Evaluation{}, core.NewValidationError(err, core.FieldError{Field: "background_information", Error: errBlankBackground})
	}

	ev, err := svc.repo.UpsertEvaluation(ctx, assessmentID, func(ev *Evaluation, exists bool) error {
		now := time.Now().UTC()
		if !exists {
			ev.Status = StatusReadyForEvaluation
			ev.Recommendations = []string{}
			ev.Websites = []string{}
			ev.CreatedAt = now
		}
		ev.BackgroundInformation = text
		ev.UpdatedAt = now
		return nil
	})
	return ev, svc.upsertError(err, assessmentID)
}

// Finalize completes the assessment's evaluation. It updates the existing evaluation in place, whatever its
// status, or creates it directly as completed.
func (svc *Service) Finalize(ctx context.Context, assessmentID int, fe FinalizeEvaluation) (Evaluation, error) {
	recommendations, websites := core.CleanStrings(fe.Recommendations), core.CleanStrings(fe.Websites)
	flds := append(listErrors(recommendations, "recommendations"), listErrors(websites, "websites")...)
	if len(flds) > 0 {
		return Evaluation{}, core.NewValidationError(nil, flds...)
	}

	ev, err := svc.repo.UpsertEvaluation(ctx, assessmentID, func(ev *Evaluation, exists bool) error {
		now := time.Now().UTC()
		if !exists {
			ev.Status = StatusReadyForEvaluation
			ev.CreatedAt = now
		}
		if !ev.Status.CanTransitionTo(StatusCompleted) {
			return errors.Wrapf(ErrInvalidTransition, "%s -> %s", ev.Status, StatusCompleted)
		}
		if fe.BackgroundInformation != nil {
			ev.BackgroundInformation = core.CleanString(*fe.BackgroundInformation)
		}
		ev.Recommendations = recommendations
		ev.Websites = websites
		ev.Status = StatusCompleted
		ev.UpdatedAt = now
		return nil
	})
	return ev, svc.upsertError(err, assessmentID)
}

// listErrors reports an empty `items` list or its blank items.
func listErrors(items []string, field string) []core.FieldError {
	if len(items) == 0 {
		return []core.FieldError{{Field: field, Error: errEmptyList}}
	}
	var flds []core.FieldError
	for i, item := range items {
		if item == "" {
			flds = append(flds, core.FieldError{Field: fmt.Sprintf("%s[%d]", field, i), Error: errBlankItem})
		}
	}
	return flds
}

func (svc *Service) upsertError(err error, assessmentID int) error {
	if err == nil {
		return nil
	}
	if errors.Cause(err) == assessment.ErrNotFound {
		return core.NewIntegrityError(errors.Errorf(errAssessmentNotExists, assessmentID))
	}
	if core.IsConflictError(err) || core.IsValidationError(err) {
		return err
	}
	return errors.Wrap(err, "saving evaluation")
}

func (svc *Service) Get(ctx context.Context, assessmentID int) (Evaluation, error) {
	return svc.repo.GetEvaluationByAssessment(ctx, assessmentID)
}

// BuildReportPayload merges `ev` with a fresh aggregation of its assessment's responses.
func (svc *Service) BuildReportPayload(ctx context.Context, ev Evaluation) (ReportPayload, error) {
	payload, _, err := svc.buildReportPayload(ctx, ev)
	return payload, err
}

func (svc *Service) buildReportPayload(ctx context.Context, ev Evaluation) (ReportPayload, child.Child, error) {
	a, err := svc.assessRepo.GetAssessmentByID(ctx, ev.AssessmentID)
	if err != nil {
		if errors.Cause(err) == assessment.ErrNotFound {
			return ReportPayload{}, child.Child{}, core.NewIntegrityError(errors.Errorf(errAssessmentNotExists, ev.AssessmentID))
		}
		return ReportPayload{}, child.Child{}, errors.Wrap(err, "loading assessment")
	}
	c, err := svc.childRepo.GetChildByID(ctx, a.ChildID)
	if err != nil {
		if errors.Cause(err) == child.ErrNotFound {
			return ReportPayload{}, child.Child{}, core.NewIntegrityError(errors.Wrapf(err, "assessment %d", a.ID))
		}
		return ReportPayload{}, child.Child{}, errors.Wrap(err, "loading child")
	}
	responses, err := svc.assessRepo.LoadResponses(ctx, a.ID)
	if err != nil {
		return ReportPayload{}, child.Child{}, errors.Wrap(err, "loading responses")
	}
	categories, err := assessment.Summarize(responses)
	if err != nil {
		return ReportPayload{}, child.Child{}, err
	}

	return ReportPayload{
		ID:                    ev.ID,
		CreatedAt:             ev.CreatedAt,
		BackgroundInformation: ev.BackgroundInformation,
		Recommendations:       nonNil(ev.Recommendations),
		Websites:              nonNil(ev.Websites),
		Status:                ev.Status,
		Assessment: ReportAssessment{
			ID:             a.ID,
			ChildName:      c.FirstName,
			AssessmentDate: a.AssessmentDate,
			AssessedAges:   assessment.AssessedAges(responses),
			Categories:     categories,
		},
	}, c, nil
}

// BuildDocument prepares everything needed to render `ev` as the evaluation report of `center`.
func (svc *Service) BuildDocument(ctx context.Context, ev Evaluation, center core.CenterConfig) (Document, error) {
	payload, c, err := svc.buildReportPayload(ctx, ev)
	if err != nil {
		return Document{}, err
	}
	logo, err := readLogo(center.LogoPath)
	if err != nil {
		return Document{}, err
	}
	return Document{
		ReportPayload: payload,
		Child:         c,
		Date:          NowFunc().Format("January 2, 2006"),
		Center:        center,
		Logo:          logo,
		Filename:      documentFilename(c.FirstName, ev.CreatedAt),
	}, nil
}

// RenderDocument writes the PDF report of `ev` to `w` and returns its filename.
func (svc *Service) RenderDocument(ctx context.Context, w io.Writer, ev Evaluation, center core.CenterConfig) (string, error) {
	doc, err := svc.BuildDocument(ctx, ev, center)
	if err != nil {
		return "", err
	}
	if err = svc.renderer.RenderEvaluation(w, doc); err != nil {
		return "", errors.Wrap(err, "rendering evaluation")
	}
	return doc.Filename, nil
}

// EmailReport sends the PDF report of a completed evaluation to the child's email address.
func (svc *Service) EmailReport(ctx context.Context, ev Evaluation, center core.CenterConfig) error {
	if ev.Status != StatusCompleted {
		return core.NewValidationError(ErrNotCompleted, core.FieldError{Field: "status", Error: ErrNotCompleted.Error()})
	}

	doc, err := svc.BuildDocument(ctx, ev, center)
	if err != nil {
		return err
	}
	if doc.Child.Email == "" {
		return core.NewValidationError(errors.New(errNoGuardianEmail), core.FieldError{Field: "email", Error: errNoGuardianEmail})
	}

	var buf bytes.Buffer
	if err = svc.renderer.RenderEvaluation(&buf, doc); err != nil {
		return errors.Wrap(err, "rendering evaluation")
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: guardianName(doc.Child), Address: doc.Child.Email}},
		Subject:      fmt.Sprintf("Developmental evaluation of %s", doc.Child.FirstName),
		TemplateName: "evaluation_report",
		TemplateData: map[string]string{
			"ChildName":      doc.Child.FirstName,
			"AssessmentDate": doc.Assessment.AssessmentDate.Format("January 2, 2006"),
			"CenterName":     center.Name,
			"Specialist":     center.Specialist,
		},
	}
	if err = msg.Attach(&buf, doc.Filename, "application/pdf"); err != nil {
		return errors.Wrap(err, "attaching report")
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}

func (svc *Service) Defaults() Defaults {
	return StandardDefaults()
}

func documentFilename(firstName string, createdAt time.Time) string {
	return fmt.Sprintf("evaluation-%s-%s.pdf", strings.ReplaceAll(firstName, " ", "-"), createdAt.Format("20060102"))
}

func guardianName(c child.Child) string {
	if c.MotherName != "" {
		return c.MotherName
	}
	return c.FatherName
}

func readLogo(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "opening logo")
	}
	defer f.Close()
	return ioutil.ReadAll(f)
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
