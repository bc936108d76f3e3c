// Package dashboard summarizes the activity of the center.
package dashboard

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/evaluation"
)

// RecentLimit is the number of latest assessments listed on the dashboard.
const RecentLimit = 5

type (
	Stats struct {
		Children          int                `json:"children"`
		Assessments       int                `json:"assessments"`
		Evaluations       map[string]int     `json:"evaluations"` // {status: count}
		RecentAssessments []RecentAssessment `json:"recent_assessments"`
	}

	RecentAssessment struct {
		ID             int       `json:"id" db:"id"`
		ChildID        int       `json:"child_id" db:"child_id"`
		ChildName      string    `json:"child_name" db:"child_name"`
		AssessmentDate core.Date `json:"assessment_date" db:"assessment_date"`
		Responses      int       `json:"responses" db:"responses"`
	}

	Repository interface {
		CountChildren(ctx context.Context) (int, error)
		CountAssessments(ctx context.Context) (int, error)
		// CountEvaluationsByStatus returns {status: count}; absent statuses are omitted.
		CountEvaluationsByStatus(ctx context.Context) (map[string]int, error)
		// RecentAssessments returns the `limit` latest assessments, newest first.
		RecentAssessments(ctx context.Context, limit int) ([]RecentAssessment, error)
	}

	ServiceInterface interface {
		Stats(ctx context.Context) (Stats, error)
	}

	Service struct {
		repo     Repository
		statuses []evaluation.Status
	}
)

var _ ServiceInterface = (*Service)(nil)

// NewService returns a dashboard Service reporting a zero count for each of `statuses` without evaluations.
func NewService(repo Repository, statuses ...evaluation.Status) *Service {
	return &Service{repo: repo, statuses: statuses}
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	var (
		stats Stats
		err   error
	)
	if stats.Children, err = svc.repo.CountChildren(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting children")
	}
	if stats.Assessments, err = svc.repo.CountAssessments(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting assessments")
	}
	if stats.Evaluations, err = svc.repo.CountEvaluationsByStatus(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting evaluations")
	}
	if stats.Evaluations == nil {
		stats.Evaluations = make(map[string]int, len(svc.statuses))
	}
	for _, st := range svc.statuses {
		if _, ok := stats.Evaluations[string(st)]; !ok {
			stats.Evaluations[string(st)] = 0
		}
	}
	if stats.RecentAssessments, err = svc.repo.RecentAssessments(ctx, RecentLimit); err != nil {
		return Stats{}, errors.Wrap(err, "querying recent assessments")
	}
	if stats.RecentAssessments == nil {
		stats.RecentAssessments = []RecentAssessment{}
	}
	return stats, nil
}
