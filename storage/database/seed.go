package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core/skill"
)

// CategorySeeder inserts a category with its questions unless its slug is taken.
type CategorySeeder interface {
	SeedCategory(ctx context.Context, cat skill.Category, questions []skill.Question) (bool, error)
}

type seedCategory struct {
	cat       skill.Category
	questions []skill.Question
}

func q(text string, age int) skill.Question {
	return skill.Question{Text: text, Age: age}
}

// default checklist: the five developmental domains and their starter questions
var seedData = []seedCategory{
	{
		cat: skill.Category{Name: "Psychosocial Skills", Slug: "psychosocial", Color: "bg-red-700"},
		questions: []skill.Question{
			q("Plays cooperatively with other children", 3),
			q("Shows empathy for others", 4),
			q("Takes turns in games", 5),
			q("Expresses emotions appropriately", 3),
			q("Resolves conflicts with peers", 5),
		},
	},
	{
		cat: skill.Category{Name: "Language Skills", Slug: "language", Color: "bg-blue-700"},
		questions: []skill.Question{
			q("Uses 3-4 word sentences", 3),
			q("Tells simple stories", 4),
			q("Uses future tense correctly", 5),
			q("Follows 3-step instructions", 4),
			q("Understands opposites", 5),
		},
	},
	{
		cat: skill.Category{Name: "Fine Motor Skills", Slug: "fine-motor", Color: "bg-green-700"},
		questions: []skill.Question{
			q("Holds crayon with fingers", 3),
			q("Cuts along a line with scissors", 4),
			q("Writes some letters", 5),
			q("Buttons and unbuttons clothing", 5),
		},
	},
	{
		cat: skill.Category{Name: "Cognitive Skills", Slug: "cognitive", Color: "bg-yellow-700"},
		questions: []skill.Question{
			q("Matches colors and shapes", 3),
			q("Counts to 10", 4),
			q("Recognizes some letters", 5),
			q("Understands concept of time", 5),
		},
	},
	{
		cat: skill.Category{Name: "Gross Motor Skills", Slug: "gross-motor", Color: "bg-purple-700"},
		questions: []skill.Question{
			q("Jumps with both feet", 3),
			q("Hops on one foot", 4),
			q("Skips alternating feet", 5),
			q("Catches a ball with hands", 5),
		},
	},
}

// Seed inserts the default skill categories & questions. Categories whose slug exists are skipped.
// It returns the slugs of the inserted categories.
func Seed(ctx context.Context, repo CategorySeeder) ([]string, error) {
	inserted := make([]string, 0, len(seedData))
	for _, sd := range seedData {
		ok, err := repo.SeedCategory(ctx, sd.cat, sd.questions)
		if err != nil {
			return inserted, errors.Wrapf(err, "seeding %s", sd.cat.Slug)
		}
		if ok {
			inserted = append(inserted, sd.cat.Slug)
		}
	}
	return inserted, nil
}
