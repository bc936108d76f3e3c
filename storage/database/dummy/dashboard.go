package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/milestone/core/dashboard"
)

type dashboardRepository struct {
	db *DB
}

var _ dashboard.Repository = (*dashboardRepository)(nil) // interface compliance check

func NewDashboardRepository(db *DB) *dashboardRepository {
	return &dashboardRepository{db: db}
}

func (repo *dashboardRepository) CountChildren(_ context.Context) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.children), nil
}

func (repo *dashboardRepository) CountAssessments(_ context.Context) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.assessments), nil
}

func (repo *dashboardRepository) CountEvaluationsByStatus(_ context.Context) (map[string]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[string]int)
	for _, ev := range repo.db.evaluations {
		counts[string(ev.Status)]++
	}
	return counts, nil
}

func (repo *dashboardRepository) RecentAssessments(_ context.Context, limit int) ([]dashboard.RecentAssessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	responses := make(map[int]int)
	for _, r := range repo.db.responses {
		responses[r.AssessmentID]++
	}

	recent := make([]dashboard.RecentAssessment, 0, len(repo.db.assessments))
	created := make(map[int]int64, len(repo.db.assessments))
	for _, a := range repo.db.assessments {
		ra := dashboard.RecentAssessment{
			ID:             a.ID,
			ChildID:        a.ChildID,
			AssessmentDate: a.AssessmentDate,
			Responses:      responses[a.ID],
		}
		if c, ok := repo.db.children[a.ChildID]; ok {
			ra.ChildName = c.FirstName + " " + c.Surname
		}
		created[a.ID] = a.CreatedAt.UnixNano()
		recent = append(recent, ra)
	}
	sort.Slice(recent, func(i, j int) bool {
		ci, cj := created[recent[i].ID], created[recent[j].ID]
		if ci != cj {
			return ci > cj
		}
		return recent[i].ID > recent[j].ID
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}
