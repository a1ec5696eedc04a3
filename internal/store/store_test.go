package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okhose/annals/internal/model"
)

// backends runs a test against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory())
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLite(filepath.Join(t.TempDir(), "annals.db"))
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		defer s.Close()
		fn(t, s)
	})
}

func testClaim(id, loc, sourceRef, rawText string, seq int64) *model.Claim {
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	return &model.Claim{
		ID:         id,
		LocationID: loc,
		Category:   model.CategoryBuilt,
		RawText:    rawText,
		ParsedDate: model.ParsedDate{
			RawText:   rawText,
			Precision: model.PrecisionYear,
			Display:   "1921",
			SortStart: 19210101,
			SortEnd:   19210101,
		},
		Confidence: 0.8,
		Status:     model.StatusPending,
		SourceType: model.SourceWeb,
		SourceRef:  sourceRef,
		IsPrimary:  true,
		Seq:        seq,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestClaimRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		c := testClaim("c-1", "loc-1", "src-a", "built in 1921", 1)
		c.MergedFromIDs = []string{"c-2", "c-3"}
		c.ReviewedBy = "reviewer"
		if err := s.PutClaim(ctx, c); err != nil {
			t.Fatal(err)
		}

		got, err := s.GetClaim(ctx, "c-1")
		if err != nil {
			t.Fatal(err)
		}
		if got.RawText != c.RawText || got.Confidence != c.Confidence || got.ReviewedBy != "reviewer" {
			t.Errorf("round trip mismatch: %+v", got)
		}
		if got.ParsedDate.SortStart != 19210101 || got.ParsedDate.Precision != model.PrecisionYear {
			t.Errorf("parsed date mismatch: %+v", got.ParsedDate)
		}
		if len(got.MergedFromIDs) != 2 {
			t.Errorf("mergedFromIds = %v", got.MergedFromIDs)
		}

		// Replacement by ID updates in place.
		got.Status = model.StatusUserApproved
		if err := s.PutClaim(ctx, got); err != nil {
			t.Fatal(err)
		}
		again, _ := s.GetClaim(ctx, "c-1")
		if again.Status != model.StatusUserApproved {
			t.Errorf("status after update = %s", again.Status)
		}
	})
}

func TestClaimNotFound(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		if _, err := s.GetClaim(context.Background(), "missing"); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestFindClaimByIdentity(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		if err := s.PutClaim(ctx, testClaim("c-1", "loc-1", "src-a", "built in 1921", 1)); err != nil {
			t.Fatal(err)
		}

		got, err := s.FindClaimByIdentity(ctx, "loc-1", "src-a", "built in 1921")
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != "c-1" {
			t.Errorf("found %s, want c-1", got.ID)
		}

		if _, err := s.FindClaimByIdentity(ctx, "loc-1", "src-a", "other text"); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestListClaimsFilters(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		a := testClaim("c-1", "loc-1", "src-a", "1921", 1)
		b := testClaim("c-2", "loc-1", "src-b", "1950", 2)
		b.Status = model.StatusRejected
		hidden := testClaim("c-3", "loc-1", "src-c", "built 1921", 3)
		hidden.IsPrimary = false
		other := testClaim("c-4", "loc-2", "src-a", "1921", 4)
		for _, c := range []*model.Claim{a, b, hidden, other} {
			if err := s.PutClaim(ctx, c); err != nil {
				t.Fatal(err)
			}
		}

		visible, err := s.ListClaims(ctx, "loc-1", ClaimQuery{})
		if err != nil {
			t.Fatal(err)
		}
		if len(visible) != 2 {
			t.Errorf("visible = %d, want 2 (hidden duplicate excluded)", len(visible))
		}

		all, _ := s.ListClaims(ctx, "loc-1", ClaimQuery{IncludeHidden: true})
		if len(all) != 3 {
			t.Errorf("all = %d, want 3", len(all))
		}
		for i := 1; i < len(all); i++ {
			if all[i-1].Seq > all[i].Seq {
				t.Error("claims not in insertion order")
			}
		}

		pending, _ := s.ListClaims(ctx, "loc-1", ClaimQuery{Status: model.StatusPending})
		if len(pending) != 1 || pending[0].ID != "c-1" {
			t.Errorf("pending = %v", pending)
		}
	})
}

func TestConflictRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

		c := &model.FactConflict{
			ID:           "cf-1",
			LocationID:   "loc-1",
			ConflictType: model.ConflictDate,
			FieldName:    "built",
			ClaimAID:     "c-1",
			ClaimBID:     "c-2",
			CreatedAt:    now,
		}
		if err := s.PutConflict(ctx, c); err != nil {
			t.Fatal(err)
		}

		got, err := s.FindConflictByPair(ctx, "loc-1", "built", model.ConflictPairKey("c-2", "c-1"))
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != "cf-1" || !got.Open() {
			t.Errorf("pair lookup = %+v", got)
		}

		got.Resolution = model.ResolutionSourceA
		got.ResolvedValue = "1921"
		got.ResolvedBy = "reviewer"
		got.ResolvedAt = &now
		if err := s.PutConflict(ctx, got); err != nil {
			t.Fatal(err)
		}

		open, _ := s.ListConflicts(ctx, "loc-1", false)
		if len(open) != 0 {
			t.Errorf("open conflicts = %d, want 0 after resolution", len(open))
		}
		all, _ := s.ListConflicts(ctx, "loc-1", true)
		if len(all) != 1 || all[0].ResolvedValue != "1921" {
			t.Errorf("all conflicts = %+v", all)
		}
	})
}

func TestListConflictsOpenFirst(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

		resolved := &model.FactConflict{
			ID: "cf-1", LocationID: "loc-1", ConflictType: model.ConflictDate,
			FieldName: "built", ClaimAID: "a", ClaimBID: "b",
			Resolution: model.ResolutionNeither, CreatedAt: now,
		}
		open := &model.FactConflict{
			ID: "cf-2", LocationID: "loc-1", ConflictType: model.ConflictDate,
			FieldName: "closed", ClaimAID: "c", ClaimBID: "d",
			CreatedAt: now.Add(time.Hour),
		}
		if err := s.PutConflict(ctx, resolved); err != nil {
			t.Fatal(err)
		}
		if err := s.PutConflict(ctx, open); err != nil {
			t.Fatal(err)
		}

		all, err := s.ListConflicts(ctx, "loc-1", true)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 2 || all[0].ID != "cf-2" {
			t.Errorf("open conflict not listed first: %+v", all)
		}
	})
}

func TestEventRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

		ev := &model.TimelineEvent{
			ID:            "ev-1",
			LocationID:    "loc-1",
			EventType:     model.EventVisit,
			DateSort:      20200501,
			DateDisplay:   "2020-05-01",
			DatePrecision: model.PrecisionExact,
			SourceType:    model.SourceVisit,
			SourceRef:     "import-77",
			Sources:       []model.SourceRef{{Type: model.SourceVisit, Ref: "import-77"}},
			MediaCount:    3,
			CreatedBy:     "importer",
			Seq:           1,
			CreatedAt:     now,
		}
		if err := s.PutEvent(ctx, ev); err != nil {
			t.Fatal(err)
		}

		got, err := s.FindEventBySource(ctx, "loc-1", "import-77", model.EventVisit, "")
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != "ev-1" || got.MediaCount != 3 || len(got.Sources) != 1 {
			t.Errorf("event lookup = %+v", got)
		}

		if err := s.DeleteEvent(ctx, "ev-1"); err != nil {
			t.Fatal(err)
		}
		if _, err := s.GetEvent(ctx, "ev-1"); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("err after delete = %v, want ErrNotFound", err)
		}
		if err := s.DeleteEvent(ctx, "ev-1"); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("double delete err = %v, want ErrNotFound", err)
		}
	})
}

func TestListEventsAcrossLocations(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

		for i, loc := range []string{"host", "wing-a", "elsewhere"} {
			ev := &model.TimelineEvent{
				ID:            model.NewID(),
				LocationID:    loc,
				EventType:     model.EventVisit,
				DateSort:      20200501,
				DateDisplay:   "2020-05-01",
				DatePrecision: model.PrecisionExact,
				SourceType:    model.SourceVisit,
				SourceRef:     "v-" + loc,
				CreatedBy:     "importer",
				Seq:           int64(i + 1),
				CreatedAt:     now,
			}
			if err := s.PutEvent(ctx, ev); err != nil {
				t.Fatal(err)
			}
		}

		events, err := s.ListEvents(ctx, []string{"host", "wing-a"})
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 2 {
			t.Errorf("events = %d, want 2", len(events))
		}
	})
}

func TestNextSeqMonotonic(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		var last int64
		for i := 0; i < 5; i++ {
			seq, err := s.NextSeq(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if seq <= last {
				t.Fatalf("seq %d not greater than previous %d", seq, last)
			}
			last = seq
		}
	})
}
