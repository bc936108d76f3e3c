package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/child"
)

var childFields = []string{
	"surname", "first_name", "middle_name", "educational_placement", "is_initial_assessment", "is_follow_up",
	"address", "email", "date_of_birth", "date_of_assessment", "age_at_consult", "gender", "siblings",
	"mother_name", "mother_occupation", "mother_contact", "father_name", "father_occupation", "father_contact",
	"medical_diagnosis", "referring_doctor", "last_assessment_date", "follow_up_date",
	"occupational_therapy", "physical_therapy", "behavioral_therapy", "speech_therapy",
	"school", "grade", "placement", "year", "reason_for_consultation", "created_at", "updated_at",
}

var (
	childColumns = "id, " + strings.Join(childFields, ", ")
	childInsert  = "INSERT INTO child (" + strings.Join(childFields, ", ") + ") VALUES (:" +
		strings.Join(childFields, ", :") + ") RETURNING id"
	childUpdate = func() string {
		sets := make([]string, 0, len(childFields))
		for _, f := range childFields {
			if f != "created_at" {
				sets = append(sets, f+" = :"+f)
			}
		}
		return "UPDATE child SET " + strings.Join(sets, ", ") + " WHERE id = :id"
	}()
)

const therapyColumns = `id, child_id, type, is_received, therapy_center, therapist_name, therapist_email, therapist_contact_number`

type childRepository struct {
	db core.DB
}

var _ child.Repository = (*childRepository)(nil) // interface compliance check

func NewChildRepository(db core.DB) *childRepository {
	return &childRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to child.ErrNotFound
func (repo *childRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return child.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *childRepository) insertTherapies(ctx context.Context, exec core.DBExecutor, c *child.Child) error {
	q := `INSERT INTO therapy (child_id, type, is_received, therapy_center, therapist_name, therapist_email, therapist_contact_number)
		VALUES (:child_id, :type, :is_received, :therapy_center, :therapist_name, :therapist_email, :therapist_contact_number)
		RETURNING id`
	for i := range c.Therapies {
		th := &c.Therapies[i]
		th.ChildID = c.ID
		rows, err := sqlx.NamedQueryContext(ctx, exec, q, th)
		if err != nil {
			return errors.Wrap(err, "inserting therapy")
		}
		if rows.Next() {
			err = rows.Scan(&th.ID)
		}
		_ = rows.Close()
		if err != nil {
			return errors.Wrap(err, "scanning therapy id")
		}
	}
	return nil
}

func (repo *childRepository) CreateChild(ctx context.Context, c child.Child) (child.Child, error) {
	err := withTx(ctx, repo.db, func(tx core.DBTransactor) error {
		rows, err := sqlx.NamedQueryContext(ctx, tx, childInsert, c)
		if err != nil {
			return errors.Wrap(err, "inserting child")
		}
		if rows.Next() {
			err = rows.Scan(&c.ID)
		}
		_ = rows.Close()
		if err != nil {
			return errors.Wrap(err, "scanning child id")
		}
		return repo.insertTherapies(ctx, tx, &c)
	})
	if err != nil {
		return child.Child{}, err
	}
	return c, nil
}

func (repo *childRepository) GetChildByID(ctx context.Context, id int) (child.Child, error) {
	var c child.Child
	if err := repo.db.GetContext(ctx, &c, `SELECT `+childColumns+` FROM child WHERE id = $1`, id); err != nil {
		return child.Child{}, repo.trapNoRowsErr(err, "getting child")
	}
	c.Therapies = make([]child.Therapy, 0)
	q := `SELECT ` + therapyColumns + ` FROM therapy WHERE child_id = $1 ORDER BY id`
	if err := repo.db.SelectContext(ctx, &c.Therapies, q, id); err != nil {
		return child.Child{}, errors.Wrap(err, "getting therapies")
	}
	return c, nil
}

func (repo *childRepository) QueryChildren(ctx context.Context, filter child.QueryFilter, ordering []core.DBOrdering) ([]child.Child, error) {
	q := `SELECT ` + childColumns + ` FROM child WHERE TRUE`
	var args queryArgs
	if filter.Search != "" {
		p := args.add("%" + filter.Search + "%")
		q += ` AND (surname ILIKE ` + p + ` OR first_name ILIKE ` + p + ` OR mother_name ILIKE ` + p + `)`
	}
	q += orderBy(ordering, "id")

	children := make([]child.Child, 0)
	if err := repo.db.SelectContext(ctx, &children, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying children")
	}
	return children, nil
}

func (repo *childRepository) UpdateChild(ctx context.Context, c child.Child) (child.Child, error) {
	err := withTx(ctx, repo.db, func(tx core.DBTransactor) error {
		res, err := tx.NamedExecContext(ctx, childUpdate, c)
		if err != nil {
			return errors.Wrap(err, "updating child")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return child.ErrNotFound
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM therapy WHERE child_id = $1`, c.ID); err != nil {
			return errors.Wrap(err, "deleting therapies")
		}
		return repo.insertTherapies(ctx, tx, &c)
	})
	if err != nil {
		return child.Child{}, err
	}
	return c, nil
}

// DeleteChild relies on ON DELETE CASCADE for therapies, assessments and their responses & evaluation.
func (repo *childRepository) DeleteChild(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM child WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting child")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return child.ErrNotFound
	}
	return nil
}
