package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/dashboard"
)

type dashboardRepository struct {
	db core.DB
}

var _ dashboard.Repository = (*dashboardRepository)(nil) // interface compliance check

func NewDashboardRepository(db core.DB) *dashboardRepository {
	return &dashboardRepository{db: db}
}

func (repo *dashboardRepository) count(ctx context.Context, table string) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+table)
	return n, errors.Wrapf(err, "counting %s", table)
}

func (repo *dashboardRepository) CountChildren(ctx context.Context) (int, error) {
	return repo.count(ctx, "child")
}

func (repo *dashboardRepository) CountAssessments(ctx context.Context) (int, error) {
	return repo.count(ctx, "assessment")
}

func (repo *dashboardRepository) CountEvaluationsByStatus(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	q := `SELECT status, COUNT(*) AS count FROM assessment_evaluation GROUP BY status`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "counting evaluations")
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (repo *dashboardRepository) RecentAssessments(ctx context.Context, limit int) ([]dashboard.RecentAssessment, error) {
	q := `SELECT a.id, a.child_id, c.first_name || ' ' || c.surname AS child_name, a.assessment_date,
			(SELECT COUNT(*) FROM assessment_response r WHERE r.assessment_id = a.id) AS responses
		FROM assessment a JOIN child c ON c.id = a.child_id
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $1`
	recent := make([]dashboard.RecentAssessment, 0, limit)
	if err := repo.db.SelectContext(ctx, &recent, q, limit); err != nil {
		return nil, errors.Wrap(err, "querying recent assessments")
	}
	return recent, nil
}
