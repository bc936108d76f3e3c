package evaluation_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/assessment"
	"github.com/trezcool/milestone/core/child"
	"github.com/trezcool/milestone/core/evaluation"
	"github.com/trezcool/milestone/core/skill"
	emailsvc "github.com/trezcool/milestone/services/email"
	dummydb "github.com/trezcool/milestone/storage/database/dummy"
	testutil "github.com/trezcool/milestone/tests"
)

// fakeRenderer writes the document filename instead of a PDF.
type fakeRenderer struct {
	mu   sync.Mutex
	docs []evaluation.Document
}

func (r *fakeRenderer) RenderEvaluation(w io.Writer, doc evaluation.Document) error {
	r.mu.Lock()
	r.docs = append(r.docs, doc)
	r.mu.Unlock()
	_, err := io.WriteString(w, "%PDF "+doc.Filename)
	return err
}

type countingRepository interface {
	evaluation.Repository
	CountEvaluations(assessmentID int) int
}

type fixture struct {
	svc        *evaluation.Service
	repo       countingRepository
	assessRepo assessment.Repository
	childRepo  child.Repository
	skillRepo  skill.Repository
	renderer   *fakeRenderer
	mailSvc    *emailsvc.ConsoleServiceMock
	kid        child.Child
	assess     assessment.Assessment
	questions  []skill.Question
}

func setup(t *testing.T) *fixture {
	db, err := dummydb.Open()
	require.NoError(t, err)
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	core.ParseEmailTemplates(logger)

	f := &fixture{
		repo:       dummydb.NewEvaluationRepository(db),
		assessRepo: dummydb.NewAssessmentRepository(db),
		childRepo:  dummydb.NewChildRepository(db),
		skillRepo:  dummydb.NewSkillRepository(db),
		renderer:   &fakeRenderer{},
		mailSvc:    emailsvc.NewConsoleServiceMock(conf, logger),
	}
	f.svc = evaluation.NewService(f.repo, f.assessRepo, f.childRepo, f.renderer, f.mailSvc)

	f.kid = testutil.CreateChild(t, f.childRepo, "Ana Maria", "Santos", "ana.parent@test.com")
	lang := testutil.CreateCategory(t, f.skillRepo, "Language Skills", "language")
	f.questions = []skill.Question{
		testutil.CreateQuestion(t, f.skillRepo, lang.ID, "use 3-4 word sentences", 3),
		testutil.CreateQuestion(t, f.skillRepo, lang.ID, "name familiar objects", 3),
		testutil.CreateQuestion(t, f.skillRepo, lang.ID, "follow 2-step instructions", 3),
	}
	q := f.questions
	f.assess = testutil.CreateAssessment(t, f.assessRepo, f.kid.ID, core.NewDate(2024, time.May, 6),
		[]int{q[0].ID, q[1].ID, q[2].ID},
		map[int]assessment.Answer{
			q[0].ID: assessment.AnswerCan,
			q[1].ID: assessment.AnswerCan,
			q[2].ID: assessment.AnswerCannot,
		})
	return f
}

func strPtr(s string) *string { return &s }

func validFinalize() evaluation.FinalizeEvaluation {
	return evaluation.FinalizeEvaluation{
		Recommendations: []string{"Daily reading", " Speech therapy twice a week "},
		Websites:        []string{"https://www.cdc.gov/ncbddd/actearly"},
	}
}

func TestService_RecordBackground(t *testing.T) {
	ctx := context.Background()

	t.Run("creates draft", func(t *testing.T) {
		f := setup(t)
		ev, err := f.svc.RecordBackground(ctx, f.assess.ID, "  Referred by pediatrician. ")
		require.NoError(t, err)
		assert.NotZero(t, ev.ID)
		assert.Equal(t, f.assess.ID, ev.AssessmentID)
		assert.Equal(t, "Referred by pediatrician.", ev.BackgroundInformation)
		assert.Equal(t, evaluation.StatusReadyForEvaluation, ev.Status)
		assert.Empty(t, ev.Recommendations)
		assert.Empty(t, ev.Websites)
	})

	t.Run("updates in place", func(t *testing.T) {
		f := setup(t)
		first, err := f.svc.RecordBackground(ctx, f.assess.ID, "first")
		require.NoError(t, err)
		second, err := f.svc.RecordBackground(ctx, f.assess.ID, "second")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "second", second.BackgroundInformation)
		assert.Equal(t, 1, f.repo.CountEvaluations(f.assess.ID))
	})

	t.Run("blank", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.RecordBackground(ctx, f.assess.ID, "   ")
		require.Error(t, err)
		assert.True(t, core.IsValidationError(err))
		assert.Zero(t, f.repo.CountEvaluations(f.assess.ID))
	})

	t.Run("unknown assessment", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.RecordBackground(ctx, 9999, "text")
		require.Error(t, err)
		assert.True(t, core.IsIntegrityError(err))
	})

	t.Run("keeps completed status", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.Finalize(ctx, f.assess.ID, validFinalize())
		require.NoError(t, err)
		ev, err := f.svc.RecordBackground(ctx, f.assess.ID, "late notes")
		require.NoError(t, err)
		assert.Equal(t, evaluation.StatusCompleted, ev.Status)
		assert.Equal(t, "late notes", ev.BackgroundInformation)
		assert.Len(t, ev.Recommendations, 2)
	})
}

func TestService_Finalize(t *testing.T) {
	ctx := context.Background()

	t.Run("after background", func(t *testing.T) {
		f := setup(t)
		draft, err := f.svc.RecordBackground(ctx, f.assess.ID, "Referred by pediatrician.")
		require.NoError(t, err)

		ev, err := f.svc.Finalize(ctx, f.assess.ID, validFinalize())
		require.NoError(t, err)
		assert.Equal(t, draft.ID, ev.ID)
		assert.Equal(t, evaluation.StatusCompleted, ev.Status)
		assert.Equal(t, "Referred by pediatrician.", ev.BackgroundInformation)
		assert.Equal(t, []string{"Daily reading", "Speech therapy twice a week"}, []string(ev.Recommendations))
		assert.Equal(t, 1, f.repo.CountEvaluations(f.assess.ID))
	})

	t.Run("without background", func(t *testing.T) {
		f := setup(t)
		fe := validFinalize()
		fe.BackgroundInformation = strPtr("Walks at 14 months.")
		ev, err := f.svc.Finalize(ctx, f.assess.ID, fe)
		require.NoError(t, err)
		assert.Equal(t, evaluation.StatusCompleted, ev.Status)
		assert.Equal(t, "Walks at 14 months.", ev.BackgroundInformation)
		assert.Equal(t, 1, f.repo.CountEvaluations(f.assess.ID))
	})

	t.Run("twice overwrites", func(t *testing.T) {
		f := setup(t)
		first, err := f.svc.Finalize(ctx, f.assess.ID, validFinalize())
		require.NoError(t, err)
		second, err := f.svc.Finalize(ctx, f.assess.ID, evaluation.FinalizeEvaluation{
			Recommendations: []string{"Occupational therapy"},
			Websites:        []string{"https://www.zerotothree.org"},
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, []string{"Occupational therapy"}, []string(second.Recommendations))
		assert.Equal(t, evaluation.StatusCompleted, second.Status)
		assert.Equal(t, 1, f.repo.CountEvaluations(f.assess.ID))
	})

	tests := []struct {
		name       string
		fe         evaluation.FinalizeEvaluation
		wantFields []string
	}{
		{
			name:       "no recommendations",
			fe:         evaluation.FinalizeEvaluation{Websites: []string{"https://a.org"}},
			wantFields: []string{"recommendations"},
		},
		{
			name:       "no websites",
			fe:         evaluation.FinalizeEvaluation{Recommendations: []string{"Play outside"}},
			wantFields: []string{"websites"},
		},
		{
			name: "blank items",
			fe: evaluation.FinalizeEvaluation{
				Recommendations: []string{"Play outside", "  "},
				Websites:        []string{""},
			},
			wantFields: []string{"recommendations[1]", "websites[0]"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			draft, err := f.svc.RecordBackground(ctx, f.assess.ID, "draft")
			require.NoError(t, err)

			_, err = f.svc.Finalize(ctx, f.assess.ID, tt.fe)
			require.Error(t, err)
			verr, ok := errors.Cause(err).(*core.ValidationError)
			require.True(t, ok, "want *core.ValidationError; got %T", err)
			var fields []string
			for _, fld := range verr.Fields {
				fields = append(fields, fld.Field)
			}
			assert.Equal(t, tt.wantFields, fields)

			// no state change
			ev, err := f.svc.Get(ctx, f.assess.ID)
			require.NoError(t, err)
			assert.Equal(t, draft, ev)
		})
	}

	t.Run("unknown assessment", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.Finalize(ctx, 9999, validFinalize())
		require.Error(t, err)
		assert.True(t, core.IsIntegrityError(err))
	})

	t.Run("concurrent", func(t *testing.T) {
		f := setup(t)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.Finalize(ctx, f.assess.ID, validFinalize())
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, f.repo.CountEvaluations(f.assess.ID))
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.svc.Get(ctx, f.assess.ID)
	assert.Equal(t, evaluation.ErrNotFound, errors.Cause(err))

	saved, err := f.svc.RecordBackground(ctx, f.assess.ID, "notes")
	require.NoError(t, err)
	ev, err := f.svc.Get(ctx, f.assess.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, ev)
}

func TestService_BuildReportPayload(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	ev, err := f.svc.Finalize(ctx, f.assess.ID, validFinalize())
	require.NoError(t, err)

	payload, err := f.svc.BuildReportPayload(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, payload.ID)
	assert.Equal(t, evaluation.StatusCompleted, payload.Status)
	assert.Equal(t, f.assess.ID, payload.Assessment.ID)
	assert.Equal(t, "Ana Maria", payload.Assessment.ChildName)
	assert.Equal(t, []int{3}, payload.Assessment.AssessedAges)
	require.Len(t, payload.Assessment.Categories, 1)

	cat := payload.Assessment.Categories[0]
	assert.Equal(t, "Language Skills", cat.Name)
	assert.Equal(t, 3, cat.Total)
	assert.Equal(t, 2, cat.CanCount)
	assert.Equal(t, 66.67, cat.Percentage)
	assert.Equal(t, "within the range of expected competency for age 3", cat.Competency)
	assert.Equal(t, []string{
		"can use 3-4 word sentences",
		"can name familiar objects",
		"has difficulty follow 2-step instructions",
	}, cat.Responses)

	t.Run("recomputed", func(t *testing.T) {
		// a second assessment of the same child does not leak into this payload
		testutil.CreateAssessment(t, f.assessRepo, f.kid.ID, core.NewDate(2024, time.June, 1),
			[]int{f.questions[2].ID}, map[int]assessment.Answer{f.questions[2].ID: assessment.AnswerCannot})

		again, err := f.svc.BuildReportPayload(ctx, ev)
		require.NoError(t, err)
		assert.Equal(t, payload, again)
	})

	t.Run("empty lists never null", func(t *testing.T) {
		draft, err := f.svc.BuildReportPayload(ctx, evaluation.Evaluation{AssessmentID: f.assess.ID})
		require.NoError(t, err)
		assert.NotNil(t, draft.Recommendations)
		assert.NotNil(t, draft.Websites)
	})

	t.Run("missing assessment", func(t *testing.T) {
		_, err := f.svc.BuildReportPayload(ctx, evaluation.Evaluation{ID: 1, AssessmentID: 9999})
		require.Error(t, err)
		assert.True(t, core.IsIntegrityError(err))
	})
}

func TestService_RenderDocument(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	origNow := evaluation.NowFunc
	evaluation.NowFunc = func() time.Time { return time.Date(2024, time.July, 4, 10, 0, 0, 0, time.UTC) }
	defer func() { evaluation.NowFunc = origNow }()

	ev, err := f.svc.Finalize(ctx, f.assess.ID, validFinalize())
	require.NoError(t, err)

	center := core.CenterConfig{Name: "Bright Steps Center", Specialist: "Dr. Reyes"}
	var buf bytes.Buffer
	filename, err := f.svc.RenderDocument(ctx, &buf, ev, center)
	require.NoError(t, err)

	wantFilename := "evaluation-Ana-Maria-" + ev.CreatedAt.Format("20060102") + ".pdf"
	assert.Equal(t, wantFilename, filename)
	assert.Equal(t, "%PDF "+wantFilename, buf.String())

	require.Len(t, f.renderer.docs, 1)
	doc := f.renderer.docs[0]
	assert.Equal(t, "July 4, 2024", doc.Date)
	assert.Equal(t, center, doc.Center)
	assert.Equal(t, f.kid.ID, doc.Child.ID)
	assert.Nil(t, doc.Logo)
}

func TestService_EmailReport(t *testing.T) {
	ctx := context.Background()
	center := core.CenterConfig{Name: "Bright Steps Center", Specialist: "Dr. Reyes"}

	t.Run("completed", func(t *testing.T) {
		f := setup(t)
		ev, err := f.svc.Finalize(ctx, f.assess.ID, validFinalize())
		require.NoError(t, err)

		require.NoError(t, f.svc.EmailReport(ctx, ev, center))
		sent := f.mailSvc.Sent()
		require.Len(t, sent, 1)
		msg := sent[0]
		require.Len(t, msg.To, 1)
		assert.Equal(t, "ana.parent@test.com", msg.To[0].Address)
		assert.Equal(t, "Maria Santos", msg.To[0].Name)
		assert.Contains(t, msg.TextContent, "Ana Maria")
		assert.Contains(t, msg.TextContent, "Bright Steps Center")
		require.Len(t, msg.Attachments, 1)
		assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	})

	t.Run("draft", func(t *testing.T) {
		f := setup(t)
		ev, err := f.svc.RecordBackground(ctx, f.assess.ID, "notes")
		require.NoError(t, err)

		err = f.svc.EmailReport(ctx, ev, center)
		require.Error(t, err)
		assert.True(t, core.IsValidationError(err))
		assert.Empty(t, f.mailSvc.Sent())
	})

	t.Run("no email", func(t *testing.T) {
		f := setup(t)
		kid := testutil.CreateChild(t, f.childRepo, "Leo", "Cruz", "")
		a := testutil.CreateAssessment(t, f.assessRepo, kid.ID, core.NewDate(2024, time.May, 6),
			[]int{f.questions[0].ID}, map[int]assessment.Answer{f.questions[0].ID: assessment.AnswerCan})
		ev, err := f.svc.Finalize(ctx, a.ID, validFinalize())
		require.NoError(t, err)

		err = f.svc.EmailReport(ctx, ev, center)
		require.Error(t, err)
		assert.True(t, core.IsValidationError(err))
		assert.Empty(t, f.mailSvc.Sent())
	})
}

func TestService_Defaults(t *testing.T) {
	f := setup(t)
	d := f.svc.Defaults()
	assert.Len(t, d.Recommendations, 9)
	assert.Len(t, d.Websites, 20)

	// callers get copies
	d.Recommendations[0] = "changed"
	assert.NotEqual(t, "changed", f.svc.Defaults().Recommendations[0])
}
