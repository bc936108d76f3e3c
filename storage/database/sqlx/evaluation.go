package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/assessment"
	"github.com/trezcool/milestone/core/evaluation"
)

const evaluationColumns = `id, assessment_id, background_information, recommendations, websites, status, created_at, updated_at`

type evaluationRepository struct {
	db core.DB
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db core.DB) *evaluationRepository {
	return &evaluationRepository{db: db}
}

func (repo *evaluationRepository) GetEvaluationByAssessment(ctx context.Context, assessmentID int) (evaluation.Evaluation, error) {
	var ev evaluation.Evaluation
	q := `SELECT ` + evaluationColumns + ` FROM assessment_evaluation WHERE assessment_id = $1`
	if err := repo.db.GetContext(ctx, &ev, q, assessmentID); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return evaluation.Evaluation{}, evaluation.ErrNotFound
		}
		return evaluation.Evaluation{}, errors.Wrap(err, "getting evaluation")
	}
	return ev, nil
}

// UpsertEvaluation serializes writers of the same assessment on its row lock.
// The unique index on assessment_id catches anything that slips through.
func (repo *evaluationRepository) UpsertEvaluation(
	ctx context.Context,
	assessmentID int,
	apply func(ev *evaluation.Evaluation, exists bool) error,
) (evaluation.Evaluation, error) {
	var ev evaluation.Evaluation
	err := withTx(ctx, repo.db, func(tx core.DBTransactor) error {
		var locked int
		if err := tx.GetContext(ctx, &locked, `SELECT id FROM assessment WHERE id = $1 FOR UPDATE`, assessmentID); err != nil {
			if errors.Cause(err) == sql.ErrNoRows {
				return assessment.ErrNotFound
			}
			return errors.Wrap(err, "locking assessment")
		}

		exists := true
		q := `SELECT ` + evaluationColumns + ` FROM assessment_evaluation WHERE assessment_id = $1`
		if err := tx.GetContext(ctx, &ev, q, assessmentID); err != nil {
			if errors.Cause(err) != sql.ErrNoRows {
				return errors.Wrap(err, "getting evaluation")
			}
			exists = false
			ev = evaluation.Evaluation{AssessmentID: assessmentID}
		}

		if err := apply(&ev, exists); err != nil {
			return err
		}
		ev.AssessmentID = assessmentID

		if exists {
			q = `UPDATE assessment_evaluation SET background_information = :background_information,
				recommendations = :recommendations, websites = :websites, status = :status, updated_at = :updated_at
				WHERE id = :id`
			_, err := tx.NamedExecContext(ctx, q, ev)
			return errors.Wrap(err, "updating evaluation")
		}

		q = `INSERT INTO assessment_evaluation
			(assessment_id, background_information, recommendations, websites, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
		err := tx.GetContext(ctx, &ev.ID, q,
			ev.AssessmentID, ev.BackgroundInformation, ev.Recommendations, ev.Websites, ev.Status, ev.CreatedAt, ev.UpdatedAt)
		if err != nil {
			if pqCode(err) == uniqueViolation {
				return core.NewConflictError(errors.Wrapf(err, "assessment %d already has an evaluation", assessmentID))
			}
			return errors.Wrap(err, "inserting evaluation")
		}
		return nil
	})
	if err != nil {
		return evaluation.Evaluation{}, err
	}
	return ev, nil
}
