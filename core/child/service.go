package child

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core"
)

var ErrNotFound = errors.New("child not found")

type (
	Repository interface {
		// CreateChild inserts the child and its Therapies.
		CreateChild(ctx context.Context, c Child) (Child, error)
		// GetChildByID returns the child with its Therapies.
		GetChildByID(ctx context.Context, id int) (Child, error)
		// QueryChildren matches QueryFilter.Search case-insensitively on surname, first_name or mother_name.
		QueryChildren(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Child, error)
		// UpdateChild updates the child and replaces its Therapies.
		UpdateChild(ctx context.Context, c Child) (Child, error)
		// DeleteChild removes the child together with its therapies and assessments.
		DeleteChild(ctx context.Context, id int) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, data ChildData) (Child, error)
		Get(ctx context.Context, id int) (Child, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Child, error)
		Update(ctx context.Context, id int, data ChildData) (Child, error)
		Delete(ctx context.Context, id int) error
		ConsentForm(ctx context.Context, id int) (ConsentForm, error)
	}

	// Renderer lays a ConsentForm out as PDF.
	Renderer interface {
		RenderConsentForm(w io.Writer, form ConsentForm) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

var (
	OrderingFields  = []string{"id", "surname", "first_name", "date_of_birth", "date_of_assessment", "created_at"}
	DefaultOrdering = core.DBOrdering{Field: "surname", Ascending: true}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, data ChildData) (Child, error) {
	now := time.Now().UTC()
	c := Child{CreatedAt: now, UpdatedAt: now}
	data.apply(&c)
	return svc.repo.CreateChild(ctx, c)
}

func (svc *Service) Get(ctx context.Context, id int) (Child, error) {
	return svc.repo.GetChildByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Child, error) {
	filter.Clean()
	ordering = core.CleanOrderings(ordering, OrderingFields, DefaultOrdering)
	return svc.repo.QueryChildren(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, id int, data ChildData) (Child, error) {
	c, err := svc.repo.GetChildByID(ctx, id)
	if err != nil {
		return Child{}, err
	}
	data.apply(&c)
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateChild(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteChild(ctx, id)
}

func (svc *Service) ConsentForm(ctx context.Context, id int) (ConsentForm, error) {
	c, err := svc.repo.GetChildByID(ctx, id)
	if err != nil {
		return ConsentForm{}, err
	}
	return NewConsentForm(c), nil
}
