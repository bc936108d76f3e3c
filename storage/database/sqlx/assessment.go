package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/assessment"
	"github.com/trezcool/milestone/core/skill"
)

const assessmentColumns = `id, child_id, assessment_date, notes, selected_ages, created_at, updated_at`

type assessmentRow struct {
	assessment.Assessment
	SelectedAges pq.Int64Array `db:"selected_ages"`
}

func (row assessmentRow) assessment() assessment.Assessment {
	a := row.Assessment
	a.SelectedAges = ints(row.SelectedAges)
	return a
}

// responseRow is a response joined with its question & the question's category.
// The category is left joined so a dangling reference reaches the aggregator instead of vanishing.
type responseRow struct {
	assessment.Response
	QuestionText       string         `db:"question_text"`
	QuestionAge        int            `db:"question_age"`
	QuestionCategoryID int            `db:"question_category_id"`
	CategoryID         sql.NullInt64  `db:"category_id"`
	CategoryName       sql.NullString `db:"category_name"`
	CategorySlug       sql.NullString `db:"category_slug"`
	CategoryColor      sql.NullString `db:"category_color"`
}

func (row responseRow) response() assessment.Response {
	r := row.Response
	r.Question = &skill.Question{
		ID:              r.QuestionID,
		SkillCategoryID: row.QuestionCategoryID,
		Text:            row.QuestionText,
		Age:             row.QuestionAge,
	}
	if row.CategoryID.Valid {
		r.Question.Category = &skill.Category{
			ID:    int(row.CategoryID.Int64),
			Name:  row.CategoryName.String,
			Slug:  row.CategorySlug.String,
			Color: row.CategoryColor.String,
		}
	}
	return r
}

type assessmentRepository struct {
	db core.DB
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db core.DB) *assessmentRepository {
	return &assessmentRepository{db: db}
}

func (repo *assessmentRepository) CreateAssessment(ctx context.Context, a assessment.Assessment) (assessment.Assessment, error) {
	err := withTx(ctx, repo.db, func(tx core.DBTransactor) error {
		q := `INSERT INTO assessment (child_id, assessment_date, notes, selected_ages, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
		err := tx.GetContext(ctx, &a.ID, q, a.ChildID, a.AssessmentDate, a.Notes, int64s(a.SelectedAges), a.CreatedAt, a.UpdatedAt)
		if err != nil {
			if pqCode(err) == foreignKeyViolation {
				return core.NewIntegrityError(errors.Wrap(err, "child does not exist"))
			}
			return errors.Wrap(err, "inserting assessment")
		}

		q = `INSERT INTO assessment_response (assessment_id, question_id, response, created_at)
			VALUES ($1, $2, $3, $4) RETURNING id`
		for i := range a.Responses {
			r := &a.Responses[i]
			r.AssessmentID = a.ID
			if err = tx.GetContext(ctx, &r.ID, q, r.AssessmentID, r.QuestionID, string(r.Answer), r.CreatedAt); err != nil {
				if pqCode(err) == foreignKeyViolation {
					return core.NewIntegrityError(errors.Wrapf(err, "question %d does not exist", r.QuestionID))
				}
				return errors.Wrap(err, "inserting response")
			}
		}
		return nil
	})
	if err != nil {
		return assessment.Assessment{}, err
	}
	return a, nil
}

func (repo *assessmentRepository) GetAssessmentByID(ctx context.Context, id int) (assessment.Assessment, error) {
	var row assessmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+assessmentColumns+` FROM assessment WHERE id = $1`, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return assessment.Assessment{}, assessment.ErrNotFound
		}
		return assessment.Assessment{}, errors.Wrap(err, "getting assessment")
	}
	return row.assessment(), nil
}

func (repo *assessmentRepository) QueryAssessments(ctx context.Context, filter assessment.Filter) ([]assessment.Assessment, error) {
	q := `SELECT ` + assessmentColumns + ` FROM assessment WHERE TRUE`
	var args queryArgs
	if filter.ChildID != 0 {
		q += ` AND child_id = ` + args.add(filter.ChildID)
	}
	q += ` ORDER BY assessment_date DESC, created_at DESC, id DESC`

	var rows []assessmentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}
	assessments := make([]assessment.Assessment, 0, len(rows))
	for _, row := range rows {
		assessments = append(assessments, row.assessment())
	}
	return assessments, nil
}

func (repo *assessmentRepository) DeleteAssessment(ctx context.Context, id int) error {
	return withTx(ctx, repo.db, func(tx core.DBTransactor) error {
		var locked int
		if err := tx.GetContext(ctx, &locked, `SELECT id FROM assessment WHERE id = $1 FOR UPDATE`, id); err != nil {
			if errors.Cause(err) == sql.ErrNoRows {
				return assessment.ErrNotFound
			}
			return errors.Wrap(err, "locking assessment")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM assessment_response WHERE assessment_id = $1`, id); err != nil {
			return errors.Wrap(err, "deleting responses")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM assessment_evaluation WHERE assessment_id = $1`, id); err != nil {
			return errors.Wrap(err, "deleting evaluation")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM assessment WHERE id = $1`, id); err != nil {
			return errors.Wrap(err, "deleting assessment")
		}
		return nil
	})
}

func (repo *assessmentRepository) LoadResponses(ctx context.Context, assessmentID int) ([]assessment.Response, error) {
	q := `SELECT r.id, r.assessment_id, r.question_id, r.response, r.created_at,
			q.text AS question_text, q.age AS question_age, q.skill_category_id AS question_category_id,
			c.id AS category_id, c.name AS category_name, c.slug AS category_slug, c.color AS category_color
		FROM assessment_response r
			JOIN question q ON q.id = r.question_id
			LEFT JOIN skill_category c ON c.id = q.skill_category_id
		WHERE r.assessment_id = $1
		ORDER BY r.id`
	var rows []responseRow
	if err := repo.db.SelectContext(ctx, &rows, q, assessmentID); err != nil {
		return nil, errors.Wrap(err, "loading responses")
	}
	responses := make([]assessment.Response, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, row.response())
	}
	return responses, nil
}
