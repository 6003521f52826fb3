package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFlagsEveryListedPhrase(t *testing.T) {
	for _, category := range Categories {
		for _, phrase := range Keywords(category) {
			t.Run(string(category)+"/"+phrase, func(t *testing.T) {
				d := Detect("Lately I feel like " + strings.ToUpper(phrase) + " and I don't know what to do")
				assert.True(t, d.Has(category), "phrase %q should flag %s", phrase, category)
			})
		}
	}
}

func TestDetectExactCategories(t *testing.T) {
	cases := []struct {
		message string
		want    Detection
	}{
		{"I want to die", Detection{Suicide: true}},
		{"my partner threatens me every night", Detection{DomesticViolence: true}},
		{"I had a panic attack at work", Detection{MentalHealth: true}},
		{"after the abuse I had a mental breakdown and want to die", Detection{Suicide: true, DomesticViolence: true, MentalHealth: true}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Detect(tc.message), tc.message)
	}
}

func TestDetectNeutralText(t *testing.T) {
	for _, message := range []string{
		"",
		"I had a lovely walk in the park today.",
		"Can you suggest a breathing exercise before bed?",
		"Work was stressful but I feel okay now.",
	} {
		d := Detect(message)
		assert.False(t, d.Any(), "neutral message %q flagged: %+v", message, d)
	}
}

func TestAppendResourcesOrder(t *testing.T) {
	assert.Equal(t, "hello", AppendResources("hello", Detection{}))

	got := AppendResources("hello", Detection{MentalHealth: true, Suicide: true})
	want := "hello\n\n" + Resource(CategorySuicide) + "\n\n" + Resource(CategoryMentalHealth)
	assert.Equal(t, want, got)
	assert.NotContains(t, got, Resource(CategoryDomesticViolence))
}
