package candidacy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/jobiai/jobiai-assess/internal/candidacy"
	"github.com/jobiai/jobiai-assess/internal/db"
)

func newStore(t *testing.T) *candidacy.SQLStore {
	t.Helper()
	dbh, err := db.OpenMemory(context.Background(), "cand-"+uuid.NewString())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	return candidacy.NewSQLStore(dbh)
}

func TestApply_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	c1, created, err := st.Apply(ctx, "job-1", "cand-1")
	if err != nil {
		t.Fatal(err)
	}
	if !created || c1.Status != candidacy.StatusPending {
		t.Fatalf("first apply: created=%v %+v", created, c1)
	}

	c2, created, err := st.Apply(ctx, "job-1", "cand-1")
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("duplicate apply reported as created")
	}
	if c2.ID != c1.ID {
		t.Fatalf("duplicate apply returned a different candidacy: %s vs %s", c2.ID, c1.ID)
	}

	if _, _, err := st.Apply(ctx, "", "cand-1"); err == nil {
		t.Fatal("empty job accepted")
	}
}

func TestListsAndStatus(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	a, _, _ := st.Apply(ctx, "job-1", "cand-1")
	_, _, _ = st.Apply(ctx, "job-2", "cand-1")
	_, _, _ = st.Apply(ctx, "job-1", "cand-2")

	mine, err := st.ListByCandidate(ctx, "cand-1")
	if err != nil || len(mine) != 2 {
		t.Fatalf("by candidate: %v %d", err, len(mine))
	}
	byJob, err := st.ListByJob(ctx, "job-1")
	if err != nil || len(byJob) != 2 {
		t.Fatalf("by job: %v %d", err, len(byJob))
	}

	up, err := st.UpdateStatus(ctx, a.ID, candidacy.StatusAccepted)
	if err != nil {
		t.Fatal(err)
	}
	if up.Status != candidacy.StatusAccepted {
		t.Fatalf("status = %s", up.Status)
	}
	if _, err := st.UpdateStatus(ctx, a.ID, "hired"); !errors.Is(err, candidacy.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := st.UpdateStatus(ctx, "missing", candidacy.StatusRejected); !errors.Is(err, candidacy.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := st.Delete(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Get(ctx, a.ID); !errors.Is(err, candidacy.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := st.Delete(ctx, a.ID); !errors.Is(err, candidacy.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}
