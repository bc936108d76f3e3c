package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/skill"
)

const (
	categoryColumns = `id, name, slug, color, created_at, updated_at`

	questionSelect = `SELECT q.id, q.skill_category_id, q.text, q.age, q.created_at, q.updated_at,
		c.name AS category_name, c.slug AS category_slug, c.color AS category_color
		FROM question q JOIN skill_category c ON c.id = q.skill_category_id`
)

type questionRow struct {
	skill.Question
	CategoryName  string `db:"category_name"`
	CategorySlug  string `db:"category_slug"`
	CategoryColor string `db:"category_color"`
}

func (row questionRow) question() skill.Question {
	q := row.Question
	q.Category = &skill.Category{ID: q.SkillCategoryID, Name: row.CategoryName, Slug: row.CategorySlug, Color: row.CategoryColor}
	return q
}

type skillRepository struct {
	db core.DB
}

var _ skill.Repository = (*skillRepository)(nil) // interface compliance check

func NewSkillRepository(db core.DB) *skillRepository {
	return &skillRepository{db: db}
}

func (repo *skillRepository) CheckSlugUniqueness(ctx context.Context, slug string, excludedIDs ...int) error {
	var exists bool
	q := `SELECT EXISTS(SELECT 1 FROM skill_category WHERE slug = $1 AND NOT (id = ANY($2)))`
	if err := repo.db.GetContext(ctx, &exists, q, slug, int64s(excludedIDs)); err != nil {
		return errors.Wrap(err, "checking slug uniqueness")
	}
	if exists {
		return skill.ErrSlugExists
	}
	return nil
}

func (repo *skillRepository) CreateCategory(ctx context.Context, cat skill.Category) (skill.Category, error) {
	q := `INSERT INTO skill_category (name, slug, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := repo.db.GetContext(ctx, &cat.ID, q, cat.Name, cat.Slug, cat.Color, cat.CreatedAt, cat.UpdatedAt)
	if err != nil {
		if pqCode(err) == uniqueViolation {
			return skill.Category{}, skill.ErrSlugExists
		}
		return skill.Category{}, errors.Wrap(err, "inserting category")
	}
	return cat, nil
}

func (repo *skillRepository) GetCategoryByID(ctx context.Context, id int) (skill.Category, error) {
	var cat skill.Category
	if err := repo.db.GetContext(ctx, &cat, `SELECT `+categoryColumns+` FROM skill_category WHERE id = $1`, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return skill.Category{}, skill.ErrCategoryNotFound
		}
		return skill.Category{}, errors.Wrap(err, "getting category")
	}
	return cat, nil
}

func (repo *skillRepository) QueryCategories(ctx context.Context) ([]skill.Category, error) {
	cats := make([]skill.Category, 0)
	if err := repo.db.SelectContext(ctx, &cats, `SELECT `+categoryColumns+` FROM skill_category ORDER BY name, id`); err != nil {
		return nil, errors.Wrap(err, "querying categories")
	}
	return cats, nil
}

func (repo *skillRepository) UpdateCategory(ctx context.Context, cat skill.Category) (skill.Category, error) {
	q := `UPDATE skill_category SET name = $2, slug = $3, color = $4, updated_at = $5 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, cat.ID, cat.Name, cat.Slug, cat.Color, cat.UpdatedAt)
	if err != nil {
		if pqCode(err) == uniqueViolation {
			return skill.Category{}, skill.ErrSlugExists
		}
		return skill.Category{}, errors.Wrap(err, "updating category")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return skill.Category{}, skill.ErrCategoryNotFound
	}
	return cat, nil
}

func (repo *skillRepository) DeleteCategory(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM skill_category WHERE id = $1`, id)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return skill.ErrCategoryHasQuestions
		}
		return errors.Wrap(err, "deleting category")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return skill.ErrCategoryNotFound
	}
	return nil
}

func (repo *skillRepository) CountQuestions(ctx context.Context, categoryID int) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM question WHERE skill_category_id = $1`, categoryID)
	return count, errors.Wrap(err, "counting questions")
}

func (repo *skillRepository) CreateQuestion(ctx context.Context, q skill.Question) (skill.Question, error) {
	query := `INSERT INTO question (skill_category_id, text, age, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := repo.db.GetContext(ctx, &q.ID, query, q.SkillCategoryID, q.Text, q.Age, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return skill.Question{}, skill.ErrCategoryNotFound
		}
		return skill.Question{}, errors.Wrap(err, "inserting question")
	}
	return q, nil
}

func (repo *skillRepository) GetQuestionByID(ctx context.Context, id int) (skill.Question, error) {
	var row questionRow
	if err := repo.db.GetContext(ctx, &row, questionSelect+` WHERE q.id = $1`, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return skill.Question{}, skill.ErrQuestionNotFound
		}
		return skill.Question{}, errors.Wrap(err, "getting question")
	}
	return row.question(), nil
}

func (repo *skillRepository) QueryQuestions(ctx context.Context, filter skill.QuestionFilter) ([]skill.Question, error) {
	q := questionSelect + ` WHERE TRUE`
	var args queryArgs
	if filter.CategoryID != 0 {
		q += ` AND q.skill_category_id = ` + args.add(filter.CategoryID)
	}
	if filter.Age != 0 {
		q += ` AND q.age = ` + args.add(filter.Age)
	}
	q += ` ORDER BY q.age, q.id`

	var rows []questionRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	questions := make([]skill.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, row.question())
	}
	return questions, nil
}

func (repo *skillRepository) MissingQuestionIDs(ctx context.Context, ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var missing []int
	q := `SELECT id FROM UNNEST($1::INTEGER[]) AS id WHERE id NOT IN (SELECT id FROM question) ORDER BY id`
	if err := repo.db.SelectContext(ctx, &missing, q, int64s(ids)); err != nil {
		return nil, errors.Wrap(err, "checking question ids")
	}
	return missing, nil
}

func (repo *skillRepository) UpdateQuestion(ctx context.Context, q skill.Question) (skill.Question, error) {
	q.UpdatedAt = q.UpdatedAt.UTC()
	query := `UPDATE question SET skill_category_id = $2, text = $3, age = $4, updated_at = $5 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, q.ID, q.SkillCategoryID, q.Text, q.Age, q.UpdatedAt)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return skill.Question{}, skill.ErrCategoryNotFound
		}
		return skill.Question{}, errors.Wrap(err, "updating question")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return skill.Question{}, skill.ErrQuestionNotFound
	}
	return q, nil
}

func (repo *skillRepository) DeleteQuestion(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM question WHERE id = $1`, id)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return skill.ErrQuestionAnswered
		}
		return errors.Wrap(err, "deleting question")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return skill.ErrQuestionNotFound
	}
	return nil
}

// SeedCategory inserts the category and its questions unless its slug is already taken.
// It reports whether the category was inserted.
func (repo *skillRepository) SeedCategory(ctx context.Context, cat skill.Category, questions []skill.Question) (bool, error) {
	var inserted bool
	err := withTx(ctx, repo.db, func(tx core.DBTransactor) error {
		now := time.Now().UTC()
		q := `INSERT INTO skill_category (name, slug, color, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4) ON CONFLICT (slug) DO NOTHING RETURNING id`
		var id int
		if err := tx.GetContext(ctx, &id, q, cat.Name, cat.Slug, cat.Color, now); err != nil {
			if errors.Cause(err) == sql.ErrNoRows {
				return nil
			}
			return errors.Wrap(err, "seeding category")
		}
		inserted = true

		q = `INSERT INTO question (skill_category_id, text, age, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`
		for _, qst := range questions {
			if _, err := tx.ExecContext(ctx, q, id, qst.Text, qst.Age, now); err != nil {
				return errors.Wrap(err, "seeding question")
			}
		}
		return nil
	})
	return inserted, err
}
