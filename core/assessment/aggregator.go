package assessment

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core"
)

// CompetencyThreshold is the percentage of `can` answers at or above which an age band is within range.
const CompetencyThreshold = 50.0

var (
	ErrUnresolvedQuestion = errors.New("response question could not be resolved")
	ErrUnresolvedCategory = errors.New("question skill category could not be resolved")
)

// CategorySummary is the aggregated outcome of one (skill category, age) group.
type CategorySummary struct {
	SkillCategoryID int      `json:"skill_category_id"`
	Name            string   `json:"name"`
	Age             int      `json:"age"`
	Responses       []string `json:"responses"`
	Total           int      `json:"total"`
	CanCount        int      `json:"can_count"`
	Percentage      float64  `json:"percentage"`
	Competency      string   `json:"competency"`
}

// CategoryStats counts the answers given for one skill category, all ages together.
type CategoryStats struct {
	SkillCategoryID int    `json:"skill_category_id"`
	Category        string `json:"category"`
	Total           int    `json:"total"`
	Can             int    `json:"can"`
	Cannot          int    `json:"cannot"`
}

type groupKey struct {
	categoryID int
	age        int
}

// Summarize groups hydrated responses by (category, question age) and derives a competency verdict per group.
// Groups are sorted by category name then age; sentences keep the order responses were supplied in.
func Summarize(responses []Response) ([]CategorySummary, error) {
	groups := make(map[groupKey]*CategorySummary)
	order := make([]groupKey, 0)

	for i, resp := range responses {
		q := resp.Question
		if q == nil {
			return nil, core.NewIntegrityError(errors.Wrapf(ErrUnresolvedQuestion, "response %d (question %d)", i, resp.QuestionID))
		}
		if q.Category == nil {
			return nil, core.NewIntegrityError(errors.Wrapf(ErrUnresolvedCategory, "question %d (category %d)", q.ID, q.SkillCategoryID))
		}

		key := groupKey{categoryID: q.SkillCategoryID, age: q.Age}
		g, ok := groups[key]
		if !ok {
			g = &CategorySummary{
				SkillCategoryID: q.SkillCategoryID,
				Name:            q.Category.Name,
				Age:             q.Age,
				Responses:       make([]string, 0),
			}
			groups[key] = g
			order = append(order, key)
		}

		g.Responses = append(g.Responses, sentence(resp.Answer, q.Text))
		g.Total++
		if resp.Answer.IsPositive() {
			g.CanCount++
		}
	}

	summaries := make([]CategorySummary, 0, len(order))
	for _, key := range order {
		g := groups[key]
		exact := float64(g.CanCount) / float64(g.Total) * 100
		g.Percentage = RoundPercentage(exact)
		g.Competency = verdict(exact, g.Age)
		summaries = append(summaries, *g)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Name != summaries[j].Name {
			return summaries[i].Name < summaries[j].Name
		}
		return summaries[i].Age < summaries[j].Age
	})
	return summaries, nil
}

// Stats counts answers per skill category, sorted by category name.
// Every answer other than `can` is counted as `cannot`.
func Stats(responses []Response) ([]CategoryStats, error) {
	byCat := make(map[int]*CategoryStats)
	for i, resp := range responses {
		q := resp.Question
		if q == nil {
			return nil, core.NewIntegrityError(errors.Wrapf(ErrUnresolvedQuestion, "response %d (question %d)", i, resp.QuestionID))
		}
		if q.Category == nil {
			return nil, core.NewIntegrityError(errors.Wrapf(ErrUnresolvedCategory, "question %d (category %d)", q.ID, q.SkillCategoryID))
		}

		st, ok := byCat[q.SkillCategoryID]
		if !ok {
			st = &CategoryStats{SkillCategoryID: q.SkillCategoryID, Category: q.Category.Name}
			byCat[q.SkillCategoryID] = st
		}
		st.Total++
		if resp.Answer.IsPositive() {
			st.Can++
		} else {
			st.Cannot++
		}
	}

	stats := make([]CategoryStats, 0, len(byCat))
	for _, st := range byCat {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Category != stats[j].Category {
			return stats[i].Category < stats[j].Category
		}
		return stats[i].SkillCategoryID < stats[j].SkillCategoryID
	})
	return stats, nil
}

// RoundPercentage rounds `p` to two decimals: 66.666.. -> 66.67.
func RoundPercentage(p float64) float64 {
	return math.Round(p*100) / 100
}

func sentence(a Answer, text string) string {
	if a.IsPositive() {
		return "can " + text
	}
	return "has difficulty " + text
}

func verdict(percentage float64, age int) string {
	if percentage >= CompetencyThreshold {
		return fmt.Sprintf("within the range of expected competency for age %d", age)
	}
	return fmt.Sprintf("below the expected range for age %d", age)
}

// AssessedAges lists the question ages of `responses` in order of first appearance.
func AssessedAges(responses []Response) []int {
	seen := make(map[int]bool)
	ages := make([]int, 0)
	for _, resp := range responses {
		if resp.Question == nil || seen[resp.Question.Age] {
			continue
		}
		seen[resp.Question.Age] = true
		ages = append(ages, resp.Question.Age)
	}
	return ages
}
