package domain_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/samirrijal/mapgood/internal/core/domain"
)

func TestValidate_ShortTitles(t *testing.T) {
	for _, title := range []string{"", "a", "Hi"} {
		got := domain.Validate(domain.FormState{Title: title, Description: "x"}, domain.DefaultFormRules)
		if len(got) != 1 {
			t.Fatalf("title %q: expected 1 violation, got %d", title, len(got))
		}
		want := domain.TitleLength(3, 25, len(title))
		if got[0] != want {
			t.Errorf("title %q: expected %+v, got %+v", title, want, got[0])
		}
	}
}

func TestValidate_ValidTitles(t *testing.T) {
	for _, title := range []string{"Café", "abc", strings.Repeat("x", 25), strings.Repeat("x", 40)} {
		got := domain.Validate(domain.FormState{Title: title}, domain.DefaultFormRules)
		if len(got) != 0 {
			t.Errorf("title %q: expected no violations, got %+v", title, got)
		}
	}
}

func TestValidate_CountsCharactersNotBytes(t *testing.T) {
	// two runes, four bytes
	got := domain.Validate(domain.FormState{Title: "éé"}, domain.DefaultFormRules)
	if len(got) != 1 || got[0].Actual != 2 {
		t.Fatalf("expected actual=2, got %+v", got)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	form := domain.FormState{Title: "Hi", Description: "x"}
	first := domain.Validate(form, domain.DefaultFormRules)
	second := domain.Validate(form, domain.DefaultFormRules)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}
	if form.Title != "Hi" || form.Description != "x" {
		t.Errorf("form was modified: %+v", form)
	}
}

func TestValidate_CustomRules(t *testing.T) {
	rules := domain.FormRules{TitleMin: 5, TitleMax: 10}
	got := domain.Validate(domain.FormState{Title: "four"}, rules)
	if len(got) != 1 || got[0] != domain.TitleLength(5, 10, 4) {
		t.Fatalf("unexpected violations: %+v", got)
	}
}

func TestFormViolation_Message(t *testing.T) {
	msg := domain.TitleLength(3, 25, 2).Message()
	if msg != "Title too short: 2 characters, minimum: 3" {
		t.Errorf("unexpected message %q", msg)
	}
}
