package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/milestone/core/skill"
)

type skillRepository struct {
	db *DB
}

var _ skill.Repository = (*skillRepository)(nil) // interface compliance check

func NewSkillRepository(db *DB) *skillRepository {
	return &skillRepository{db: db}
}

// withCategory must be called with the lock held.
func (repo *skillRepository) withCategory(q skill.Question) skill.Question {
	if cat, ok := repo.db.categories[q.SkillCategoryID]; ok {
		c := *cat
		q.Category = &c
	}
	return q
}

func (repo *skillRepository) CheckSlugUniqueness(_ context.Context, slug string, excludedIDs ...int) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, cat := range repo.db.categories {
		if cat.Slug == slug && !isExcluded(cat.ID, excludedIDs) {
			return skill.ErrSlugExists
		}
	}
	return nil
}

func (repo *skillRepository) CreateCategory(_ context.Context, cat skill.Category) (skill.Category, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, c := range repo.db.categories {
		if c.Slug == cat.Slug {
			return skill.Category{}, skill.ErrSlugExists
		}
	}
	cat.ID = repo.db.nextPK("skill_category")
	cat.Questions = nil
	repo.db.categories[cat.ID] = &cat
	return cat, nil
}

func (repo *skillRepository) GetCategoryByID(_ context.Context, id int) (skill.Category, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cat, ok := repo.db.categories[id]; ok {
		return *cat, nil
	}
	return skill.Category{}, skill.ErrCategoryNotFound
}

func (repo *skillRepository) QueryCategories(_ context.Context) ([]skill.Category, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	cats := make([]skill.Category, 0, len(repo.db.categories))
	for _, cat := range repo.db.categories {
		cats = append(cats, *cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Name != cats[j].Name {
			return cats[i].Name < cats[j].Name
		}
		return cats[i].ID < cats[j].ID
	})
	return cats, nil
}

func (repo *skillRepository) UpdateCategory(_ context.Context, cat skill.Category) (skill.Category, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.categories[cat.ID]; !ok {
		return skill.Category{}, skill.ErrCategoryNotFound
	}
	for _, c := range repo.db.categories {
		if c.Slug == cat.Slug && c.ID != cat.ID {
			return skill.Category{}, skill.ErrSlugExists
		}
	}
	cat.Questions = nil
	repo.db.categories[cat.ID] = &cat
	return cat, nil
}

func (repo *skillRepository) DeleteCategory(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.categories[id]; !ok {
		return skill.ErrCategoryNotFound
	}
	for _, q := range repo.db.questions {
		if q.SkillCategoryID == id {
			return skill.ErrCategoryHasQuestions
		}
	}
	delete(repo.db.categories, id)
	return nil
}

func (repo *skillRepository) CountQuestions(_ context.Context, categoryID int) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, q := range repo.db.questions {
		if q.SkillCategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

func (repo *skillRepository) CreateQuestion(_ context.Context, q skill.Question) (skill.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.categories[q.SkillCategoryID]; !ok {
		return skill.Question{}, skill.ErrCategoryNotFound
	}
	q.ID = repo.db.nextPK("question")
	q.Category = nil
	repo.db.questions[q.ID] = &q
	return q, nil
}

func (repo *skillRepository) GetQuestionByID(_ context.Context, id int) (skill.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if q, ok := repo.db.questions[id]; ok {
		return repo.withCategory(*q), nil
	}
	return skill.Question{}, skill.ErrQuestionNotFound
}

func (repo *skillRepository) QueryQuestions(_ context.Context, filter skill.QuestionFilter) ([]skill.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	questions := make([]skill.Question, 0)
	for _, q := range repo.db.questions {
		if filter.CategoryID != 0 && q.SkillCategoryID != filter.CategoryID {
			continue
		}
		if filter.Age != 0 && q.Age != filter.Age {
			continue
		}
		questions = append(questions, repo.withCategory(*q))
	}
	sort.Slice(questions, func(i, j int) bool {
		if questions[i].Age != questions[j].Age {
			return questions[i].Age < questions[j].Age
		}
		return questions[i].ID < questions[j].ID
	})
	return questions, nil
}

func (repo *skillRepository) MissingQuestionIDs(_ context.Context, ids []int) ([]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var missing []int
	for _, id := range ids {
		if _, ok := repo.db.questions[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Ints(missing)
	return missing, nil
}

func (repo *skillRepository) UpdateQuestion(_ context.Context, q skill.Question) (skill.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.questions[q.ID]; !ok {
		return skill.Question{}, skill.ErrQuestionNotFound
	}
	if _, ok := repo.db.categories[q.SkillCategoryID]; !ok {
		return skill.Question{}, skill.ErrCategoryNotFound
	}
	q.Category = nil
	repo.db.questions[q.ID] = &q
	return q, nil
}

func (repo *skillRepository) DeleteQuestion(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.questions[id]; !ok {
		return skill.ErrQuestionNotFound
	}
	for _, r := range repo.db.responses {
		if r.QuestionID == id {
			return skill.ErrQuestionAnswered
		}
	}
	delete(repo.db.questions, id)
	return nil
}

// SeedCategory inserts the category and its questions unless its slug is already taken.
func (repo *skillRepository) SeedCategory(_ context.Context, cat skill.Category, questions []skill.Question) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, c := range repo.db.categories {
		if c.Slug == cat.Slug {
			return false, nil
		}
	}
	now := time.Now().UTC()
	cat.ID = repo.db.nextPK("skill_category")
	cat.Questions = nil
	cat.CreatedAt, cat.UpdatedAt = now, now
	repo.db.categories[cat.ID] = &cat
	for _, q := range questions {
		q := q
		q.CreatedAt, q.UpdatedAt = now, now
		q.ID = repo.db.nextPK("question")
		q.SkillCategoryID = cat.ID
		q.Category = nil
		repo.db.questions[q.ID] = &q
	}
	return true, nil
}
