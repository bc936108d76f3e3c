package skill

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core"
)

var (
	// errors
	ErrCategoryNotFound     = errors.New("skill category not found")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrSlugExists           = errors.New("a skill category with this slug already exists")
	ErrCategoryHasQuestions = errors.New("skill category has questions")
	ErrQuestionAnswered     = errors.New("question has recorded responses")
	errInvalidCategory      = "the selected skill category is invalid"
)

type (
	Repository interface {
		CheckSlugUniqueness(ctx context.Context, slug string, excludedIDs ...int) error
		CreateCategory(ctx context.Context, cat Category) (Category, error)
		GetCategoryByID(ctx context.Context, id int) (Category, error)
		// QueryCategories returns all categories ordered by name.
		QueryCategories(ctx context.Context) ([]Category, error)
		UpdateCategory(ctx context.Context, cat Category) (Category, error)
		// DeleteCategory returns ErrCategoryHasQuestions while the category owns a question.
		DeleteCategory(ctx context.Context, id int) error
		CountQuestions(ctx context.Context, categoryID int) (int, error)

		CreateQuestion(ctx context.Context, q Question) (Question, error)
		// GetQuestionByID returns the question with its Category.
		GetQuestionByID(ctx context.Context, id int) (Question, error)
		// QueryQuestions returns questions with their Category, ordered by age then id.
		QueryQuestions(ctx context.Context, filter QuestionFilter) ([]Question, error)
		// MissingQuestionIDs returns the subset of ids that do not exist.
		MissingQuestionIDs(ctx context.Context, ids []int) ([]int, error)
		UpdateQuestion(ctx context.Context, q Question) (Question, error)
		// DeleteQuestion returns ErrQuestionAnswered once a response references the question.
		DeleteQuestion(ctx context.Context, id int) error
	}

	ServiceInterface interface {
		CreateCategory(ctx context.Context, nc NewCategory) (Category, error)
		GetCategory(ctx context.Context, id int) (Category, error)
		ListCategories(ctx context.Context) ([]Category, error)
		UpdateCategory(ctx context.Context, id int, uc UpdateCategory) (Category, error)
		DeleteCategory(ctx context.Context, id int) error

		CreateQuestion(ctx context.Context, nq NewQuestion) (Question, error)
		GetQuestion(ctx context.Context, id int) (Question, error)
		QueryQuestions(ctx context.Context, filter QuestionFilter) ([]Question, error)
		GroupedQuestions(ctx context.Context) ([]Category, error)
		UpdateQuestion(ctx context.Context, id int, uq UpdateQuestion) (Question, error)
		DeleteQuestion(ctx context.Context, id int) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkSlug(ctx context.Context, slug string, excludedIDs ...int) error {
	if err := svc.repo.CheckSlugUniqueness(ctx, slug, excludedIDs...); err != nil {
		if errors.Cause(err) == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: ErrSlugExists.Error()})
		}
		return errors.Wrap(err, "checking slug uniqueness")
	}
	return nil
}

func (svc *Service) CreateCategory(ctx context.Context, nc NewCategory) (Category, error) {
	if err := svc.checkSlug(ctx, nc.Slug); err != nil {
		return Category{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateCategory(ctx, Category{
		Name:      nc.Name,
		Slug:      nc.Slug,
		Color:     nc.Color,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetCategory(ctx context.Context, id int) (Category, error) {
	return svc.repo.GetCategoryByID(ctx, id)
}

func (svc *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return svc.repo.QueryCategories(ctx)
}

func (svc *Service) UpdateCategory(ctx context.Context, id int, uc UpdateCategory) (Category, error) {
	cat, err := svc.repo.GetCategoryByID(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if err = svc.checkSlug(ctx, uc.Slug, id); err != nil {
		return Category{}, err
	}
	cat.Name = uc.Name
	cat.Slug = uc.Slug
	cat.Color = uc.Color
	cat.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCategory(ctx, cat)
}

// DeleteCategory refuses to delete a category while it owns any question.
func (svc *Service) DeleteCategory(ctx context.Context, id int) error {
	if _, err := svc.repo.GetCategoryByID(ctx, id); err != nil {
		return err
	}
	count, err := svc.repo.CountQuestions(ctx, id)
	if err != nil {
		return errors.Wrap(err, "counting category questions")
	}
	if count > 0 {
		return core.NewIntegrityError(ErrCategoryHasQuestions)
	}
	if err = svc.repo.DeleteCategory(ctx, id); err != nil {
		if errors.Cause(err) == ErrCategoryHasQuestions {
			return core.NewIntegrityError(ErrCategoryHasQuestions)
		}
		return errors.Wrap(err, "deleting category")
	}
	return nil
}

func (svc *Service) checkCategory(ctx context.Context, id int) (Category, error) {
	cat, err := svc.repo.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrCategoryNotFound {
			return Category{}, core.NewValidationError(err, core.FieldError{Field: "skill_category_id", Error: errInvalidCategory})
		}
		return Category{}, errors.Wrap(err, "finding category")
	}
	return cat, nil
}

func (svc *Service) CreateQuestion(ctx context.Context, nq NewQuestion) (Question, error) {
	cat, err := svc.checkCategory(ctx, nq.SkillCategoryID)
	if err != nil {
		return Question{}, err
	}
	now := time.Now().UTC()
	q, err := svc.repo.CreateQuestion(ctx, Question{
		SkillCategoryID: nq.SkillCategoryID,
		Text:            nq.Text,
		Age:             nq.Age,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return Question{}, err
	}
	q.Category = &cat
	return q, nil
}

func (svc *Service) GetQuestion(ctx context.Context, id int) (Question, error) {
	return svc.repo.GetQuestionByID(ctx, id)
}

func (svc *Service) QueryQuestions(ctx context.Context, filter QuestionFilter) ([]Question, error) {
	return svc.repo.QueryQuestions(ctx, filter)
}

// GroupedQuestions returns every category (by name) holding its questions ordered by age.
func (svc *Service) GroupedQuestions(ctx context.Context) ([]Category, error) {
	cats, err := svc.repo.QueryCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying categories")
	}
	questions, err := svc.repo.QueryQuestions(ctx, QuestionFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}

	byCat := make(map[int][]Question, len(cats))
	for _, q := range questions {
		q.Category = nil
		byCat[q.SkillCategoryID] = append(byCat[q.SkillCategoryID], q)
	}
	for i := range cats {
		qs := byCat[cats[i].ID]
		sort.SliceStable(qs, func(a, b int) bool { return qs[a].Age < qs[b].Age })
		if qs == nil {
			qs = []Question{}
		}
		cats[i].Questions = qs
	}
	return cats, nil
}

func (svc *Service) UpdateQuestion(ctx context.Context, id int, uq UpdateQuestion) (Question, error) {
	q, err := svc.repo.GetQuestionByID(ctx, id)
	if err != nil {
		return Question{}, err
	}
	cat, err := svc.checkCategory(ctx, uq.SkillCategoryID)
	if err != nil {
		return Question{}, err
	}
	q.SkillCategoryID = uq.SkillCategoryID
	q.Text = uq.Text
	q.Age = uq.Age
	q.UpdatedAt = time.Now().UTC()
	if q, err = svc.repo.UpdateQuestion(ctx, q); err != nil {
		return Question{}, err
	}
	q.Category = &cat
	return q, nil
}

func (svc *Service) DeleteQuestion(ctx context.Context, id int) error {
	if err := svc.repo.DeleteQuestion(ctx, id); err != nil {
		if errors.Cause(err) == ErrQuestionAnswered {
			return core.NewIntegrityError(ErrQuestionAnswered)
		}
		return err
	}
	return nil
}
