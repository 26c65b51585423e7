package mcpadapter

import (
	"context"
	"errors"
	"testing"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
)

type fakeChecker struct {
	got models.CheckRequest
	err error
}

func (f *fakeChecker) Execute(ctx context.Context, req models.CheckRequest) (models.CheckResponse, error) {
	f.got = req
	if f.err != nil {
		return models.CheckResponse{}, f.err
	}
	return models.CheckResponse{
		RequestID: "req-1",
		Results:   []models.CheckResult{{Name: req.Names[0], Verdict: models.VerdictBlocked}},
	}, nil
}

func TestCheckHandler(t *testing.T) {
	checker := &fakeChecker{}
	threshold := 2

	handler := NewCheckHandler(checker)
	_, result, err := handler(context.Background(), nil, CheckInput{
		Names:      []string{"Angry Puppies"},
		Categories: []string{"Violence"},
		Threshold:  &threshold,
	})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	if checker.got.Threshold == nil || *checker.got.Threshold != 2 {
		t.Errorf("threshold not forwarded: %+v", checker.got)
	}
	if len(checker.got.Categories) != 1 || checker.got.Categories[0] != "Violence" {
		t.Errorf("categories not forwarded: %+v", checker.got)
	}
	if checker.got.Variants {
		t.Error("variants must be off for the batch tool")
	}
	if result.RequestID != "req-1" || result.Results[0].Verdict != models.VerdictBlocked {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestCheckNameHandler(t *testing.T) {
	checker := &fakeChecker{}

	handler := NewCheckNameHandler(checker)
	if _, _, err := handler(context.Background(), nil, CheckNameInput{Name: "I Hate You", Variants: true}); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	if len(checker.got.Names) != 1 || checker.got.Names[0] != "I Hate You" || !checker.got.Variants {
		t.Errorf("unexpected request %+v", checker.got)
	}
}

func TestCheckHandler_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	handler := NewCheckHandler(&fakeChecker{err: boom})

	if _, _, err := handler(context.Background(), nil, CheckInput{Names: []string{"x"}}); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestNewServer(t *testing.T) {
	if NewServer(&fakeChecker{}, "test") == nil {
		t.Fatal("expected a server")
	}
}
