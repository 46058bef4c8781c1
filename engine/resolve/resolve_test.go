package resolve

import (
	"errors"
	"testing"

	"github.com/nathoo/heartweek/engine/actions"
	"github.com/nathoo/heartweek/engine/enginetest"
	"github.com/nathoo/heartweek/engine/parser"
	"github.com/nathoo/heartweek/engine/state"
)

// townMenu generates the real menu for the town square at 9:00.
func townMenu(t *testing.T) []actions.Action {
	t.Helper()
	defs := enginetest.Defs()
	s := state.NewSession(defs, enginetest.Rules(), "s1", "h1", 1)
	s.Location = "town"
	s.Clock.Time = 540
	s.Villagers["bram"].Location = "town"
	s.Inventory = append(s.Inventory, state.NewToken(s, "bouquet"), state.NewToken(s, "turnip"), state.NewToken(s, "turnip"))
	ctx, err := actions.ContextFor(s, defs, enginetest.Rules(), 0)
	if err != nil {
		t.Fatal(err)
	}
	list, err := actions.Generate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return list
}

func resolve(t *testing.T, line string, list []actions.Action) (actions.Action, error) {
	t.Helper()
	return Resolve(parser.Parse(line), list)
}

func TestResolve_ByNumber(t *testing.T) {
	list := townMenu(t)
	a, err := resolve(t, "1", list)
	if err != nil {
		t.Fatal(err)
	}
	if a.Digest != list[0].Digest {
		t.Errorf("got %q, want %q", a.Description, list[0].Description)
	}
	var nm *NoMatchError
	if _, err := resolve(t, "0", list); !errors.As(err, &nm) {
		t.Errorf("expected no match for 0, got %v", err)
	}
	if _, err := resolve(t, "99", list); !errors.As(err, &nm) {
		t.Errorf("expected no match for 99, got %v", err)
	}
}

func TestResolve_ByDigest(t *testing.T) {
	list := townMenu(t)
	want := list[len(list)-1]
	a, err := resolve(t, want.Digest, list)
	if err != nil || a.Digest != want.Digest {
		t.Fatalf("full digest: %v %v", a.Description, err)
	}
	a, err = resolve(t, want.Digest[:8], list)
	if err != nil || a.Digest != want.Digest {
		t.Fatalf("digest prefix: %v %v", a.Description, err)
	}
}

func TestResolve_ExactDescription(t *testing.T) {
	list := townMenu(t)
	a, err := resolve(t, "Talk to Rosa", list)
	if err != nil {
		t.Fatal(err)
	}
	if a.Kind != actions.Talk || a.Villager != "rosa" {
		t.Errorf("got %+v", a)
	}
}

func TestResolve_Aliases(t *testing.T) {
	list := townMenu(t)
	tests := []struct {
		input string
		kind  actions.Kind
		check func(actions.Action) bool
	}{
		{"chat with bram", actions.Talk, func(a actions.Action) bool { return a.Villager == "bram" }},
		{"west to farm", actions.Travel, func(a actions.Action) bool { return a.Place == "farm" }},
		{"n", actions.Travel, func(a actions.Action) bool { return a.Place == "mountain" }},
		{"enter store", actions.Travel, func(a actions.Action) bool { return a.Place == "general_store" }},
		{"offer the bouquet to rosa", actions.Give, func(a actions.Action) bool {
			return a.Villager == "rosa" && a.Item.ItemID == "bouquet"
		}},
	}
	for _, tt := range tests {
		a, err := resolve(t, tt.input, list)
		if err != nil {
			t.Errorf("%q: %v", tt.input, err)
			continue
		}
		if a.Kind != tt.kind || !tt.check(a) {
			t.Errorf("%q resolved to %q", tt.input, a.Description)
		}
	}
}

func TestResolve_IdenticalDescriptionsPickFirst(t *testing.T) {
	list := townMenu(t)
	a, err := resolve(t, "give turnip to rosa", list)
	if err != nil {
		t.Fatal(err)
	}
	if a.Item == nil || a.Item.ItemID != "turnip" {
		t.Fatalf("got %+v", a)
	}
	for _, b := range list {
		if b.Kind == actions.Give && b.Villager == "rosa" && b.Item.ItemID == "turnip" {
			if b.Digest != a.Digest {
				t.Errorf("expected the first turnip, got token %s", a.Item.ID)
			}
			break
		}
	}
}

func TestResolve_Ambiguous(t *testing.T) {
	list := townMenu(t)
	var amb *AmbiguityError
	if _, err := resolve(t, "w", list); !errors.As(err, &amb) {
		t.Errorf("two paths lead west, got %v", err)
	}
	_, err := resolve(t, "give bouquet", list)
	if !errors.As(err, &amb) {
		t.Fatalf("expected ambiguity, got %v", err)
	}
	if len(amb.Candidates) != 2 {
		t.Errorf("candidates = %v", amb.Candidates)
	}
}

func TestResolve_Typo(t *testing.T) {
	list := townMenu(t)
	a, err := resolve(t, "talk to rsoa", list)
	if err != nil {
		t.Fatal(err)
	}
	if a.Villager != "rosa" {
		t.Errorf("got %q", a.Description)
	}
}

func TestResolve_NoMatch(t *testing.T) {
	list := townMenu(t)
	var nm *NoMatchError
	if _, err := resolve(t, "dance wildly with the moon", list); !errors.As(err, &nm) {
		t.Errorf("expected no match, got %v", err)
	}
	if _, err := Resolve(parser.Input{Kind: parser.Meta, Raw: "/help"}, list); !errors.As(err, &nm) {
		t.Errorf("meta input should not resolve, got %v", err)
	}
}

func TestResolve_EmptyMenu(t *testing.T) {
	_, err := resolve(t, "sleep", nil)
	var nm *NoMatchError
	if !errors.As(err, &nm) {
		t.Errorf("expected no match, got %v", err)
	}
}
