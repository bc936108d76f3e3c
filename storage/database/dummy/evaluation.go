package dummydb

import (
	"context"

	"github.com/trezcool/milestone/core/assessment"
	"github.com/trezcool/milestone/core/evaluation"
)

type evaluationRepository struct {
	db *DB
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db *DB) *evaluationRepository {
	return &evaluationRepository{db: db}
}

func copyEvaluation(ev evaluation.Evaluation) evaluation.Evaluation {
	ev.Recommendations = copyStrings(ev.Recommendations)
	ev.Websites = copyStrings(ev.Websites)
	return ev
}

// byAssessment must be called with the lock held.
func (repo *evaluationRepository) byAssessment(assessmentID int) (*evaluation.Evaluation, bool) {
	for _, ev := range repo.db.evaluations {
		if ev.AssessmentID == assessmentID {
			return ev, true
		}
	}
	return nil, false
}

func (repo *evaluationRepository) GetEvaluationByAssessment(_ context.Context, assessmentID int) (evaluation.Evaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ev, ok := repo.byAssessment(assessmentID); ok {
		return copyEvaluation(*ev), nil
	}
	return evaluation.Evaluation{}, evaluation.ErrNotFound
}

func (repo *evaluationRepository) UpsertEvaluation(
	_ context.Context,
	assessmentID int,
	apply func(ev *evaluation.Evaluation, exists bool) error,
) (evaluation.Evaluation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.assessments[assessmentID]; !ok {
		return evaluation.Evaluation{}, assessment.ErrNotFound
	}

	ev := evaluation.Evaluation{AssessmentID: assessmentID}
	stored, exists := repo.byAssessment(assessmentID)
	if exists {
		ev = copyEvaluation(*stored)
	}
	if err := apply(&ev, exists); err != nil {
		return evaluation.Evaluation{}, err
	}
	ev.AssessmentID = assessmentID
	if !exists {
		ev.ID = repo.db.nextPK("assessment_evaluation")
	}

	saved := copyEvaluation(ev)
	repo.db.evaluations[ev.ID] = &saved
	return ev, nil
}

// CountEvaluations returns the number of evaluation rows of the assessment.
func (repo *evaluationRepository) CountEvaluations(assessmentID int) int {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var n int
	for _, ev := range repo.db.evaluations {
		if ev.AssessmentID == assessmentID {
			n++
		}
	}
	return n
}
