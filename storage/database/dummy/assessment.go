package dummydb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/assessment"
)

type assessmentRepository struct {
	db *DB
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *DB) *assessmentRepository {
	return &assessmentRepository{db: db}
}

// deleteAssessment removes the assessment, its responses & its evaluation. The write lock must be held.
func (db *DB) deleteAssessment(id int) {
	for rid, r := range db.responses {
		if r.AssessmentID == id {
			delete(db.responses, rid)
		}
	}
	for eid, ev := range db.evaluations {
		if ev.AssessmentID == id {
			delete(db.evaluations, eid)
		}
	}
	delete(db.assessments, id)
}

func copyAssessment(a assessment.Assessment) assessment.Assessment {
	a.SelectedAges = copyInts(a.SelectedAges)
	a.Responses = nil
	return a
}

func (repo *assessmentRepository) CreateAssessment(_ context.Context, a assessment.Assessment) (assessment.Assessment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.children[a.ChildID]; !ok {
		return assessment.Assessment{}, core.NewIntegrityError(errors.Errorf("child %d does not exist", a.ChildID))
	}
	for _, r := range a.Responses {
		if _, ok := repo.db.questions[r.QuestionID]; !ok {
			return assessment.Assessment{}, core.NewIntegrityError(errors.Errorf("question %d does not exist", r.QuestionID))
		}
	}

	a.ID = repo.db.nextPK("assessment")
	responses := make([]assessment.Response, 0, len(a.Responses))
	for _, r := range a.Responses {
		r := r
		r.ID = repo.db.nextPK("assessment_response")
		r.AssessmentID = a.ID
		r.Question = nil
		repo.db.responses[r.ID] = &r
		responses = append(responses, r)
	}
	stored := copyAssessment(a)
	repo.db.assessments[a.ID] = &stored

	a.Responses = responses
	return a, nil
}

func (repo *assessmentRepository) GetAssessmentByID(_ context.Context, id int) (assessment.Assessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.assessments[id]; ok {
		return copyAssessment(*a), nil
	}
	return assessment.Assessment{}, assessment.ErrNotFound
}

func (repo *assessmentRepository) QueryAssessments(_ context.Context, filter assessment.Filter) ([]assessment.Assessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	assessments := make([]assessment.Assessment, 0)
	for _, a := range repo.db.assessments {
		if filter.ChildID != 0 && a.ChildID != filter.ChildID {
			continue
		}
		assessments = append(assessments, copyAssessment(*a))
	}
	sort.Slice(assessments, func(i, j int) bool {
		a, b := assessments[i], assessments[j]
		if !a.AssessmentDate.Equal(b.AssessmentDate.Time) {
			return a.AssessmentDate.After(b.AssessmentDate.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return assessments, nil
}

func (repo *assessmentRepository) DeleteAssessment(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.assessments[id]; !ok {
		return assessment.ErrNotFound
	}
	repo.db.deleteAssessment(id)
	return nil
}

func (repo *assessmentRepository) LoadResponses(_ context.Context, assessmentID int) ([]assessment.Response, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	responses := make([]assessment.Response, 0)
	for _, r := range repo.db.responses {
		if r.AssessmentID != assessmentID {
			continue
		}
		resp := *r
		if q, ok := repo.db.questions[resp.QuestionID]; ok {
			qst := *q
			if cat, ok := repo.db.categories[qst.SkillCategoryID]; ok {
				c := *cat
				qst.Category = &c
			}
			resp.Question = &qst
		}
		responses = append(responses, resp)
	}
	sort.Slice(responses, func(i, j int) bool { return responses[i].ID < responses[j].ID })
	return responses, nil
}
