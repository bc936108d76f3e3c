package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/child"
)

type childRepository struct {
	db *DB
}

var _ child.Repository = (*childRepository)(nil) // interface compliance check

func NewChildRepository(db *DB) *childRepository {
	return &childRepository{db: db}
}

// saveTherapies must be called with the write lock held.
func (repo *childRepository) saveTherapies(c *child.Child) {
	therapies := make([]child.Therapy, 0, len(c.Therapies))
	for _, th := range c.Therapies {
		th.ID = repo.db.nextPK("therapy")
		th.ChildID = c.ID
		therapies = append(therapies, th)
	}
	c.Therapies = therapies
}

func copyChild(c child.Child) child.Child {
	c.Therapies = append(make([]child.Therapy, 0, len(c.Therapies)), c.Therapies...)
	return c
}

func (repo *childRepository) CreateChild(_ context.Context, c child.Child) (child.Child, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = repo.db.nextPK("child")
	repo.saveTherapies(&c)
	stored := copyChild(c)
	repo.db.children[c.ID] = &stored
	return c, nil
}

func (repo *childRepository) GetChildByID(_ context.Context, id int) (child.Child, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.children[id]; ok {
		return copyChild(*c), nil
	}
	return child.Child{}, child.ErrNotFound
}

func (repo *childRepository) QueryChildren(_ context.Context, filter child.QueryFilter, ordering []core.DBOrdering) ([]child.Child, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	children := make([]child.Child, 0)
	for _, c := range repo.db.children {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Surname), search) &&
			!strings.Contains(strings.ToLower(c.FirstName), search) &&
			!strings.Contains(strings.ToLower(c.MotherName), search) {
			continue
		}
		cc := copyChild(*c)
		cc.Therapies = nil
		children = append(children, cc)
	}

	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i], children[j]
		return orderedLess(ordering, func(field string) int {
			switch field {
			case "id":
				return compareInts(a.ID, b.ID)
			case "surname":
				return compareStrings(a.Surname, b.Surname)
			case "first_name":
				return compareStrings(a.FirstName, b.FirstName)
			case "date_of_birth":
				return compareTimes(a.DateOfBirth.Time, b.DateOfBirth.Time)
			case "date_of_assessment":
				return compareTimes(a.DateOfAssessment.Time, b.DateOfAssessment.Time)
			case "created_at":
				return compareTimes(a.CreatedAt, b.CreatedAt)
			}
			return 0
		}, a.ID < b.ID)
	})
	return children, nil
}

func (repo *childRepository) UpdateChild(_ context.Context, c child.Child) (child.Child, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.children[c.ID]; !ok {
		return child.Child{}, child.ErrNotFound
	}
	repo.saveTherapies(&c)
	stored := copyChild(c)
	repo.db.children[c.ID] = &stored
	return c, nil
}

func (repo *childRepository) DeleteChild(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.children[id]; !ok {
		return child.ErrNotFound
	}
	for _, a := range repo.db.assessments {
		if a.ChildID == id {
			repo.db.deleteAssessment(a.ID)
		}
	}
	delete(repo.db.children, id)
	return nil
}
