package skill

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/milestone/core"
)

// Age bands a question may target.
const (
	MinAge = 1
	MaxAge = 12
)

type Category struct {
	ID        int        `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Slug      string     `json:"slug" db:"slug"`
	Color     string     `json:"color" db:"color"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	Questions []Question `json:"questions,omitempty" db:"-"`
}

type Question struct {
	ID              int       `json:"id" db:"id"`
	SkillCategoryID int       `json:"skill_category_id" db:"skill_category_id"`
	Text            string    `json:"text" db:"text"`
	Age             int       `json:"age" db:"age"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
	Category        *Category `json:"category,omitempty" db:"-"`
}

// NewCategory contains information needed to create a new Category.
// Slug is derived from Name when omitted.
type NewCategory struct {
	Name  string `json:"name" validate:"required,max=255"`
	Slug  string `json:"slug" validate:"omitempty,max=255,slug"`
	Color string `json:"color" validate:"omitempty,max=50"`
}

func (nc *NewCategory) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Slug = core.CleanString(nc.Slug, true /* lower */)
	nc.Color = core.CleanString(nc.Color)
	if nc.Slug == "" {
		nc.Slug = core.Slugify(nc.Name)
	}
	return validate.Struct(nc)
}

// UpdateCategory defines what information may be provided to modify an existing Category.
type UpdateCategory NewCategory

func (uc *UpdateCategory) Validate(validate *validator.Validate) error {
	return (*NewCategory)(uc).Validate(validate)
}

// NewQuestion contains information needed to create a new Question.
type NewQuestion struct {
	SkillCategoryID int    `json:"skill_category_id" validate:"required"`
	Text            string `json:"text" validate:"required,notblank"`
	Age             int    `json:"age" validate:"required,min=1,max=12"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.Text = core.CleanString(nq.Text)
	return validate.Struct(nq)
}

// UpdateQuestion defines what information may be provided to modify an existing Question.
type UpdateQuestion NewQuestion

func (uq *UpdateQuestion) Validate(validate *validator.Validate) error {
	return (*NewQuestion)(uq).Validate(validate)
}

type QuestionFilter struct {
	CategoryID int `query:"skill_category_id"`
	Age        int `query:"age"`
}

func (qf QuestionFilter) IsEmpty() bool {
	return qf.CategoryID == 0 && qf.Age == 0
}
