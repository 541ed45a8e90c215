package stage_test

import (
	"context"
	"encoding/json"
	"testing"

	"convolens/internal/conversation"
	"convolens/internal/stage"
)

type fakeStage struct {
	name string
}

func (f fakeStage) Name() string { return f.name }

func (f fakeStage) Run(context.Context, *conversation.Conversation) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := stage.NewRegistry(fakeStage{name: "emotion"}, fakeStage{name: "emotion"})
	if err == nil {
		t.Fatal("expected duplicate stage name to be rejected")
	}
}

func TestRegistryOrderAndNames(t *testing.T) {
	r, err := stage.NewRegistry(fakeStage{name: "tactics"}, fakeStage{name: "emotion"})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	handlers := r.Handlers()
	if len(handlers) != 2 || handlers[0].Name() != "tactics" {
		t.Fatalf("expected registration order preserved, got %v", handlers)
	}
	names := r.Names()
	if len(names) != 2 || names[0] != "emotion" || names[1] != "tactics" {
		t.Fatalf("expected sorted names, got %v", names)
	}
}

func TestRegistryWithout(t *testing.T) {
	r, err := stage.NewRegistry(fakeStage{name: "a"}, fakeStage{name: "b"}, fakeStage{name: "c"})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	filtered := r.Without("b", "zzz")
	if filtered.Len() != 2 {
		t.Fatalf("expected 2 stages after filter, got %d", filtered.Len())
	}
	for _, h := range filtered.Handlers() {
		if h.Name() == "b" {
			t.Fatal("expected stage b removed")
		}
	}
	if r.Len() != 3 {
		t.Fatal("expected original registry unchanged")
	}
}
