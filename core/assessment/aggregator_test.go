package assessment

import (
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/skill"
)

var (
	language  = &skill.Category{ID: 2, Name: "Language Skills"}
	cognitive = &skill.Category{ID: 4, Name: "Cognitive Skills"}
	grossMtr  = &skill.Category{ID: 5, Name: "Gross Motor Skills"}
)

func question(id int, cat *skill.Category, text string, age int) *skill.Question {
	return &skill.Question{ID: id, SkillCategoryID: cat.ID, Text: text, Age: age, Category: cat}
}

func resp(q *skill.Question, a Answer) Response {
	return Response{QuestionID: q.ID, Answer: a, Question: q}
}

func TestSummarize(t *testing.T) {
	l3a := question(1, language, "use 3-4 word sentences", 3)
	l3b := question(2, language, "name familiar objects", 3)
	l3c := question(3, language, "follow 2-step instructions", 3)
	l4 := question(4, language, "tell simple stories", 4)
	c5 := question(5, cognitive, "count to 10", 5)
	c3 := question(6, cognitive, "match colors", 3)
	g4 := question(7, grossMtr, "hop on one foot", 4)

	tests := []struct {
		name      string
		responses []Response
		want      []CategorySummary
	}{
		{
			name: "mostly can",
			responses: []Response{
				resp(l3a, AnswerCan), resp(l3b, AnswerCannot), resp(l3c, AnswerCan),
			},
			want: []CategorySummary{{
				SkillCategoryID: 2,
				Name:            "Language Skills",
				Age:             3,
				Responses: []string{
					"can use 3-4 word sentences",
					"has difficulty name familiar objects",
					"can follow 2-step instructions",
				},
				Total:      3,
				CanCount:   2,
				Percentage: 66.67,
				Competency: "within the range of expected competency for age 3",
			}},
		},
		{
			name:      "single cannot",
			responses: []Response{resp(c5, AnswerCannot)},
			want: []CategorySummary{{
				SkillCategoryID: 4,
				Name:            "Cognitive Skills",
				Age:             5,
				Responses:       []string{"has difficulty count to 10"},
				Total:           1,
				Percentage:      0,
				Competency:      "below the expected range for age 5",
			}},
		},
		{
			name:      "half is within range",
			responses: []Response{resp(l3a, AnswerCan), resp(l3b, AnswerNotObserved)},
			want: []CategorySummary{{
				SkillCategoryID: 2,
				Name:            "Language Skills",
				Age:             3,
				Responses:       []string{"can use 3-4 word sentences", "has difficulty name familiar objects"},
				Total:           2,
				CanCount:        1,
				Percentage:      50,
				Competency:      "within the range of expected competency for age 3",
			}},
		},
		{
			name:      "emerging is not positive",
			responses: []Response{resp(g4, AnswerEmerging)},
			want: []CategorySummary{{
				SkillCategoryID: 5,
				Name:            "Gross Motor Skills",
				Age:             4,
				Responses:       []string{"has difficulty hop on one foot"},
				Total:           1,
				Percentage:      0,
				Competency:      "below the expected range for age 4",
			}},
		},
		{
			name: "groups by category and age, sorted by name then age",
			responses: []Response{
				resp(g4, AnswerCan), resp(l4, AnswerCan), resp(c5, AnswerCannot), resp(l3a, AnswerCan), resp(c3, AnswerCan),
			},
			want: []CategorySummary{
				{SkillCategoryID: 4, Name: "Cognitive Skills", Age: 3, Responses: []string{"can match colors"},
					Total: 1, CanCount: 1, Percentage: 100, Competency: "within the range of expected competency for age 3"},
				{SkillCategoryID: 4, Name: "Cognitive Skills", Age: 5, Responses: []string{"has difficulty count to 10"},
					Total: 1, Percentage: 0, Competency: "below the expected range for age 5"},
				{SkillCategoryID: 5, Name: "Gross Motor Skills", Age: 4, Responses: []string{"can hop on one foot"},
					Total: 1, CanCount: 1, Percentage: 100, Competency: "within the range of expected competency for age 4"},
				{SkillCategoryID: 2, Name: "Language Skills", Age: 3, Responses: []string{"can use 3-4 word sentences"},
					Total: 1, CanCount: 1, Percentage: 100, Competency: "within the range of expected competency for age 3"},
				{SkillCategoryID: 2, Name: "Language Skills", Age: 4, Responses: []string{"can tell simple stories"},
					Total: 1, CanCount: 1, Percentage: 100, Competency: "within the range of expected competency for age 4"},
			},
		},
		{
			name:      "no responses",
			responses: nil,
			want:      []CategorySummary{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Summarize(tt.responses)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSummarize_Invariants(t *testing.T) {
	var responses []Response
	answers := []Answer{AnswerCan, AnswerCannot, AnswerEmerging, AnswerNotObserved, AnswerCan, AnswerCan}
	cats := []*skill.Category{language, cognitive, grossMtr}
	var positives int
	for i := 0; i < 60; i++ {
		a := answers[i%len(answers)]
		if a == AnswerCan {
			positives++
		}
		q := question(i+1, cats[i%len(cats)], "do thing", 1+i%4)
		responses = append(responses, resp(q, a))
	}

	first, err := Summarize(responses)
	require.NoError(t, err)
	second, err := Summarize(responses)
	require.NoError(t, err)
	assert.Equal(t, first, second, "aggregation must be deterministic")

	var canSum, totalSum int
	for _, s := range first {
		canSum += s.CanCount
		totalSum += s.Total
		assert.GreaterOrEqual(t, s.Percentage, 0.0)
		assert.LessOrEqual(t, s.Percentage, 100.0)
		within := s.Competency == "within the range of expected competency for age "+strconv.Itoa(s.Age)
		assert.Equal(t, 2*s.CanCount >= s.Total, within, "%s age %d", s.Name, s.Age)
	}
	assert.Equal(t, positives, canSum)
	assert.Equal(t, len(responses), totalSum)
}

func TestSummarize_Unresolved(t *testing.T) {
	orphan := &skill.Question{ID: 9, SkillCategoryID: 42, Text: "stack blocks", Age: 2}

	tests := []struct {
		name      string
		responses []Response
		wantErr   error
	}{
		{
			name:      "missing question",
			responses: []Response{{QuestionID: 9, Answer: AnswerCan}},
			wantErr:   ErrUnresolvedQuestion,
		},
		{
			name:      "missing category",
			responses: []Response{resp(question(1, language, "talk", 3), AnswerCan), resp(orphan, AnswerCan)},
			wantErr:   ErrUnresolvedCategory,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Summarize(tt.responses)
			assert.Nil(t, got)
			require.Error(t, err)
			assert.True(t, core.IsIntegrityError(err), "want IntegrityError, got %T", err)
			assert.Equal(t, tt.wantErr, errors.Cause(err.(*core.IntegrityError).Err))
		})
	}
}

func TestStats(t *testing.T) {
	responses := []Response{
		resp(question(1, language, "a", 3), AnswerCan),
		resp(question(2, language, "b", 4), AnswerEmerging),
		resp(question(3, cognitive, "c", 3), AnswerCannot),
		resp(question(4, language, "d", 5), AnswerCan),
	}
	got, err := Stats(responses)
	require.NoError(t, err)
	assert.Equal(t, []CategoryStats{
		{SkillCategoryID: 4, Category: "Cognitive Skills", Total: 1, Can: 0, Cannot: 1},
		{SkillCategoryID: 2, Category: "Language Skills", Total: 3, Can: 2, Cannot: 1},
	}, got)

	_, err = Stats([]Response{{QuestionID: 1, Answer: AnswerCan}})
	assert.True(t, core.IsIntegrityError(err))
}

func TestAssessedAges(t *testing.T) {
	responses := []Response{
		resp(question(1, language, "a", 4), AnswerCan),
		resp(question(2, cognitive, "b", 3), AnswerCan),
		resp(question(3, language, "c", 4), AnswerCan),
		resp(question(4, grossMtr, "d", 5), AnswerCan),
	}
	assert.Equal(t, []int{4, 3, 5}, AssessedAges(responses))
	assert.Equal(t, []int{}, AssessedAges(nil))
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		in      string
		want    Answer
		wantErr bool
	}{
		{in: "can", want: AnswerCan},
		{in: "cannot", want: AnswerCannot},
		{in: "emerging", want: AnswerEmerging},
		{in: "not_observed", want: AnswerNotObserved},
		{in: "maybe", wantErr: true},
		{in: "CAN", wantErr: true},
		{in: " can ", wantErr: true},
		{in: "Not_Observed", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAnswer(tt.in)
			if tt.wantErr {
				assert.True(t, core.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundPercentage(t *testing.T) {
	assert.Equal(t, 66.67, RoundPercentage(200.0/3))
	assert.Equal(t, 33.33, RoundPercentage(100.0/3))
	assert.Equal(t, 50.0, RoundPercentage(50))
}
