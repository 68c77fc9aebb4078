package generation

import (
	"errors"
	"testing"

	"github.com/kopcaptz/daybookai/internal/services/space/domain/play"
)

func TestParseSituationsAcceptsValidOutput(t *testing.T) {
	raw := `{"situations":[
		{"text":"Plan a surprise evening.","card_type":"choice","options":["Dinner out","Home picnic","Night walk"]},
		{"text":"What does trust mean to you?","card_type":"values","values_questions":["What made you feel trusted recently?"]}
	]}`

	situations, err := parseSituations(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(situations) != 2 {
		t.Fatalf("expected 2 situations, got %d", len(situations))
	}
	if situations[0].CardType != play.CardTypeChoice || len(situations[0].Options) != 3 {
		t.Fatalf("unexpected first situation %+v", situations[0])
	}
	if situations[1].CardType != play.CardTypeValues || len(situations[1].ValuesQuestions) != 1 {
		t.Fatalf("unexpected second situation %+v", situations[1])
	}
}

func TestParseSituationsStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"situations\":[{\"text\":\"A quiet minute.\",\"card_type\":\"choice\",\"options\":[\"A\",\"B\"]}]}\n```"
	situations, err := parseSituations(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(situations) != 1 {
		t.Fatalf("expected 1 situation, got %d", len(situations))
	}
}

func TestParseSituationsFailsClosed(t *testing.T) {
	cases := map[string]string{
		"empty output":          "",
		"not json":              "here are some fun ideas!",
		"empty list":            `{"situations":[]}`,
		"too many":              `{"situations":[{"text":"a","card_type":"choice","options":["A","B"]},{"text":"b","card_type":"choice","options":["A","B"]},{"text":"c","card_type":"choice","options":["A","B"]},{"text":"d","card_type":"choice","options":["A","B"]},{"text":"e","card_type":"choice","options":["A","B"]},{"text":"f","card_type":"choice","options":["A","B"]}]}`,
		"blank text":            `{"situations":[{"text":"  ","card_type":"choice","options":["A","B"]}]}`,
		"unknown card type":     `{"situations":[{"text":"a","card_type":"riddle"}]}`,
		"choice single option":  `{"situations":[{"text":"a","card_type":"choice","options":["A"]}]}`,
		"choice too many":       `{"situations":[{"text":"a","card_type":"choice","options":["A","B","C","D","E"]}]}`,
		"choice blank option":   `{"situations":[{"text":"a","card_type":"choice","options":["A","  "]}]}`,
		"choice with questions": `{"situations":[{"text":"a","card_type":"choice","options":["A","B"],"values_questions":["Q"]}]}`,
		"values no questions":   `{"situations":[{"text":"a","card_type":"values"}]}`,
		"values too many":       `{"situations":[{"text":"a","card_type":"values","values_questions":["Q1","Q2","Q3","Q4"]}]}`,
		"values with options":   `{"situations":[{"text":"a","card_type":"values","values_questions":["Q"],"options":["A","B"]}]}`,
	}
	for name, raw := range cases {
		if _, err := parseSituations(raw); !errors.Is(err, ErrInvalidResponse) {
			t.Errorf("%s: expected ErrInvalidResponse, got %v", name, err)
		}
	}
}

func TestParseReflection(t *testing.T) {
	reflection, err := parseReflection("```\nYou both chose honesty.\n```")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if reflection != "You both chose honesty." {
		t.Fatalf("unexpected reflection %q", reflection)
	}

	if _, err := parseReflection("   "); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}
