package worker

import (
	"context"
	"testing"
	"time"

	"github.com/okhose/annals/internal/model"
)

func TestLimiterAllowWithinBurst(t *testing.T) {
	l := NewLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow(model.SourceWeb) {
			t.Fatalf("request %d denied within burst", i)
		}
	}
	if l.Allow(model.SourceWeb) {
		t.Error("request beyond burst allowed")
	}
}

func TestLimiterIsolatesSources(t *testing.T) {
	l := NewLimiter(1, 1)

	if !l.Allow(model.SourceWeb) {
		t.Fatal("first web request denied")
	}
	if l.Allow(model.SourceWeb) {
		t.Error("second web request allowed")
	}
	// A different source has its own budget.
	if !l.Allow(model.SourceDocument) {
		t.Error("document request denied by web limiter")
	}
}

func TestLimiterSetSourceRate(t *testing.T) {
	l := NewLimiter(1, 1)
	l.SetSourceRate(model.SourceEXIF, 100, 10)

	for i := 0; i < 10; i++ {
		if !l.Allow(model.SourceEXIF) {
			t.Fatalf("request %d denied after rate override", i)
		}
	}
}

func TestLimiterWaitHonorsContext(t *testing.T) {
	l := NewLimiter(0.001, 1)
	l.Allow(model.SourceWeb) // Drain the burst

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, model.SourceWeb); err == nil {
		t.Error("Wait returned nil with exhausted limiter and expired context")
	}
}
