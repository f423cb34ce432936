package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalogLoads(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Len(t, c.Assessments, 4)
	assert.Len(t, c.Interventions, 27)
	assert.Len(t, c.Articles, 10)
	assert.Len(t, c.Languages, 12)
	assert.Len(t, c.Forms.GoalCategories, 8)
	assert.Len(t, c.Forms.JournalEntryTypes, 4)
	assert.Len(t, c.Forms.Moods, 5)
	assert.Contains(t, c.CoachPrompt, "988")
}

func TestSleepInterpretation(t *testing.T) {
	a, ok := Default().Assessment("sleep")
	require.True(t, ok)
	require.Len(t, a.Questions, 7)
	assert.Equal(t, 4, a.Scale.Max)
	assert.Equal(t, 28.0, a.MaxPossible())

	level, pct := a.Interpret(14)
	assert.Equal(t, 50.0, pct)
	assert.Equal(t, "Fair", level.Level)
}

func TestInterpretBoundaries(t *testing.T) {
	a, ok := Default().Assessment("perma4")
	require.True(t, ok)
	top := a.MaxPossible()

	cases := []struct {
		pct  float64
		want string
	}{
		{100, "Flourishing"},
		{80, "Flourishing"},
		{79, "Doing Well"},
		{60, "Doing Well"},
		{40, "Moderate"},
		{39, "Needs Attention"},
		{0, "Needs Attention"},
	}
	for _, tc := range cases {
		level, _ := a.Interpret(top * tc.pct / 100)
		assert.Equal(t, tc.want, level.Level, "pct=%v", tc.pct)
	}
}

func TestLookups(t *testing.T) {
	c := Default()

	i, ok := c.Intervention("stress-001")
	require.True(t, ok)
	assert.Equal(t, "stress_management", i.Category)
	assert.Len(t, c.InterventionsIn("connection"), 2)
	assert.Len(t, c.InterventionsIn("all"), len(c.Interventions))

	_, ok = c.Article("sleep-101")
	assert.True(t, ok)
	assert.Len(t, c.SearchArticles("sleep", ""), 1)
	assert.Empty(t, c.SearchArticles("", "zzzz-no-match"))

	assert.Equal(t, "en", c.Language("xx").Code)
	assert.Equal(t, "Español", c.Language("es").Name)

	st, ok := c.SessionType("reboot")
	require.True(t, ok)
	assert.Equal(t, 45, st.Duration)
}

func TestVoicePromptNamesLanguage(t *testing.T) {
	p := Default().VoicePrompt("de")
	assert.Contains(t, p, "Deutsch")
	assert.Contains(t, p, "741741")
}

func TestRound(t *testing.T) {
	assert.Equal(t, 4.0, Round(4.0, 2))
	assert.Equal(t, 3.33, Round(10.0/3, 2))
	assert.Equal(t, 1.3, Round(1.25, 1))
}
