package sqlite

import (
	"context"
	"testing"
)

func TestVerdicts_RecordAndDownvoted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.StartRun(ctx, "janitor", false)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	err = s.RecordVerdicts(ctx, first.ID, []Verdict{
		{RecordID: "rec-b", Title: "Episode 12", Reasons: []string{"keyword: episode 12"}, Action: ActionDownvoted},
		{RecordID: "rec-a", Title: "Intro", Reasons: []string{"duration 30s under 45s"}, Action: ActionFailed},
	})
	if err != nil {
		t.Fatalf("RecordVerdicts: %v", err)
	}

	dry, err := s.StartRun(ctx, "janitor", true)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := s.RecordVerdicts(ctx, dry.ID, []Verdict{
		{RecordID: "rec-c", Title: "Trailer", Reasons: []string{"keyword: trailer"}, Action: ActionDryRun},
	}); err != nil {
		t.Fatalf("RecordVerdicts: %v", err)
	}

	down, err := s.Downvoted(ctx)
	if err != nil {
		t.Fatalf("Downvoted: %v", err)
	}
	if len(down) != 1 {
		t.Fatalf("expected 1 downvoted record, got %d", len(down))
	}
	if _, ok := down["rec-b"]; !ok {
		t.Error("expected rec-b to be downvoted")
	}

	got, err := s.RunVerdicts(ctx, first.ID)
	if err != nil {
		t.Fatalf("RunVerdicts: %v", err)
	}
	if len(got) != 2 || got[0].RecordID != "rec-a" || got[1].RecordID != "rec-b" {
		t.Fatalf("unexpected verdicts: %+v", got)
	}
	if len(got[1].Reasons) != 1 || got[1].Reasons[0] != "keyword: episode 12" {
		t.Errorf("reasons not preserved: %+v", got[1].Reasons)
	}
}

func TestVerdicts_EmptyBatch(t *testing.T) {
	s := newTestStore(t)
	if err := s.RecordVerdicts(context.Background(), "run-x", nil); err != nil {
		t.Errorf("expected empty batch to be a no-op, got %v", err)
	}
}

func TestVerdicts_UnknownRunRejected(t *testing.T) {
	s := newTestStore(t)
	err := s.RecordVerdicts(context.Background(), "run-missing", []Verdict{
		{RecordID: "rec-a", Action: ActionDownvoted},
	})
	if err == nil {
		t.Error("expected foreign key violation for an unknown run")
	}
}

func TestImports(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.Imported(ctx, "songs", "guid-1")
	if err != nil {
		t.Fatalf("Imported: %v", err)
	}
	if ok {
		t.Fatal("expected nothing imported yet")
	}

	for _, rec := range []ImportRecord{
		{ListTag: "songs", StableID: "guid-1", RecordID: "ev-1", Kind: "song", FeedID: "42", Outcome: "added"},
		{ListTag: "songs", StableID: "guid-2", Kind: "song", FeedID: "42", Outcome: "already_added"},
		{ListTag: "songs", StableID: "guid-1", RecordID: "ev-1", Kind: "song", FeedID: "42", Outcome: "already_added"},
	} {
		if err := s.RecordImport(ctx, rec); err != nil {
			t.Fatalf("RecordImport: %v", err)
		}
	}

	ok, err = s.Imported(ctx, "songs", "guid-1")
	if err != nil || !ok {
		t.Fatalf("Imported: ok=%v err=%v", ok, err)
	}
	if ok, _ := s.Imported(ctx, "artists", "guid-1"); ok {
		t.Error("imports are scoped per list")
	}
}
