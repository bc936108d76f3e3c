package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/assessment"
	"github.com/trezcool/milestone/core/child"
	"github.com/trezcool/milestone/core/skill"
	"github.com/trezcool/milestone/core/user"
	logsvc "github.com/trezcool/milestone/services/logger"
	"github.com/trezcool/milestone/storage/database"
)

// NewLogger returns a silent logger that never reports to rollbar.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	logger.Enable(false)
	return logger
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func CreateCategory(t *testing.T, repo skill.Repository, name, slug string) skill.Category {
	now := time.Now().UTC()
	cat, err := repo.CreateCategory(context.Background(), skill.Category{
		Name:      name,
		Slug:      slug,
		Color:     "bg-gray-700",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createCategory() failed: %v", err)
	}
	return cat
}

func CreateQuestion(t *testing.T, repo skill.Repository, categoryID int, text string, age int) skill.Question {
	now := time.Now().UTC()
	q, err := repo.CreateQuestion(context.Background(), skill.Question{
		SkillCategoryID: categoryID,
		Text:            text,
		Age:             age,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("createQuestion() failed: %v", err)
	}
	return q
}

func CreateChild(t *testing.T, repo child.Repository, firstName, surname, email string) child.Child {
	now := time.Now().UTC()
	c, err := repo.CreateChild(context.Background(), child.Child{
		Surname:          surname,
		FirstName:        firstName,
		Email:            email,
		DateOfBirth:      core.NewDate(2019, time.March, 14),
		DateOfAssessment: core.NewDate(2024, time.February, 1),
		AgeAtConsult:     "4 years 11 months",
		Gender:           child.GenderFemale,
		MotherName:       "Maria " + surname,
		MotherContact:    "0917 000 0000",
		FatherName:       "Jose " + surname,
		FatherContact:    "0917 111 1111",
		CreatedAt:        now,
		UpdatedAt:        now,
		Therapies: []child.Therapy{
			{Type: "speech", IsReceived: true, TherapyCenter: "Bright Steps"},
		},
	})
	if err != nil {
		t.Fatalf("createChild() failed: %v", err)
	}
	return c
}

// CreateAssessment records `answers` ({question id: answer}, in `order`) for the child.
func CreateAssessment(
	t *testing.T,
	repo assessment.Repository,
	childID int,
	date core.Date,
	order []int,
	answers map[int]assessment.Answer,
) assessment.Assessment {
	now := time.Now().UTC()
	a := assessment.Assessment{
		ChildID:        childID,
		AssessmentDate: date,
		SelectedAges:   []int{3, 4, 5},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, qid := range order {
		a.Responses = append(a.Responses, assessment.Response{QuestionID: qid, Answer: answers[qid], CreatedAt: now})
	}
	a, err := repo.CreateAssessment(context.Background(), a)
	if err != nil {
		t.Fatalf("createAssessment() failed: %v", err)
	}
	return a
}

// PrepareDB opens the TEST database, migrates it and empties every table.
// The test is skipped when the database is not reachable.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conf := core.NewTestConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	db, err := database.Open(conf)
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	if err = database.Ping(ctx, db, 3); err != nil {
		_ = db.Close()
		t.Skipf("test database unavailable: %v", err)
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("migrating test database: %v", err)
	}
	q := `TRUNCATE assessment_evaluation, assessment_response, assessment, therapy, child, question, skill_category, "user"
		RESTART IDENTITY CASCADE`
	if _, err = db.ExecContext(context.Background(), q); err != nil {
		_ = db.Close()
		t.Fatalf("truncating test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
