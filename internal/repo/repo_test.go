package repo

import (
	"context"
	"testing"
	"time"

	"github.com/jamesaphoenix/tx/internal/store"
	"github.com/jamesaphoenix/tx/internal/types"
)

func setupTestDB(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDocUpsertGetListDelete(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	now := time.Now()

	d := &types.Doc{ID: "doc-1", Title: "guide", Body: "# hello", CreatedAt: now, UpdatedAt: now}
	if err := UpsertDoc(ctx, s.DB(), d); err != nil {
		t.Fatalf("UpsertDoc: %v", err)
	}

	got, err := GetDoc(ctx, s.DB(), "doc-1")
	if err != nil {
		t.Fatalf("GetDoc: %v", err)
	}
	if got.Title != "guide" {
		t.Errorf("Title = %q, want %q", got.Title, "guide")
	}

	d.Body = "# updated"
	if err := UpsertDoc(ctx, s.DB(), d); err != nil {
		t.Fatalf("UpsertDoc (replace): %v", err)
	}
	got, err = GetDoc(ctx, s.DB(), "doc-1")
	if err != nil {
		t.Fatalf("GetDoc after replace: %v", err)
	}
	if got.Body != "# updated" {
		t.Errorf("Body = %q, want %q", got.Body, "# updated")
	}

	docs, err := ListDocs(ctx, s.DB())
	if err != nil {
		t.Fatalf("ListDocs: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("ListDocs len = %d, want 1", len(docs))
	}

	if err := DeleteDoc(ctx, s.DB(), "doc-1"); err != nil {
		t.Fatalf("DeleteDoc: %v", err)
	}
	if _, err := GetDoc(ctx, s.DB(), "doc-1"); err == nil {
		t.Fatal("expected error getting deleted doc")
	}
}

func TestInvariantUpsertGetList(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	now := time.Now()

	inv := &types.Invariant{ID: "inv-1", Name: "no-nil-ptr", Description: "never deref a nil pointer", CreatedAt: now}
	if err := UpsertInvariant(ctx, s.DB(), inv); err != nil {
		t.Fatalf("UpsertInvariant: %v", err)
	}

	got, err := GetInvariant(ctx, s.DB(), "inv-1")
	if err != nil {
		t.Fatalf("GetInvariant: %v", err)
	}
	if got.Name != "no-nil-ptr" {
		t.Errorf("Name = %q, want %q", got.Name, "no-nil-ptr")
	}

	list, err := ListInvariants(ctx, s.DB())
	if err != nil {
		t.Fatalf("ListInvariants: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListInvariants len = %d, want 1", len(list))
	}
}

func TestLearningInsertGetUsageAndOutcome(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	now := time.Now()

	l := &types.Learning{ID: "lrn-1", Content: "retry with backoff", CreatedAt: now, Category: "pattern"}
	if err := InsertLearning(ctx, s.DB(), l); err != nil {
		t.Fatalf("InsertLearning: %v", err)
	}

	got, err := GetLearning(ctx, s.DB(), "lrn-1")
	if err != nil {
		t.Fatalf("GetLearning: %v", err)
	}
	if got.Content != "retry with backoff" {
		t.Errorf("Content = %q, want %q", got.Content, "retry with backoff")
	}
	if got.UsageCount != 0 {
		t.Errorf("UsageCount = %d, want 0", got.UsageCount)
	}

	if err := BumpLearningUsage(ctx, s.DB(), "lrn-1"); err != nil {
		t.Fatalf("BumpLearningUsage: %v", err)
	}
	got, err = GetLearning(ctx, s.DB(), "lrn-1")
	if err != nil {
		t.Fatalf("GetLearning after bump: %v", err)
	}
	if got.UsageCount != 1 {
		t.Errorf("UsageCount = %d, want 1", got.UsageCount)
	}

	if err := SetLearningOutcome(ctx, s.DB(), "lrn-1", 0.75); err != nil {
		t.Fatalf("SetLearningOutcome: %v", err)
	}
	got, err = GetLearning(ctx, s.DB(), "lrn-1")
	if err != nil {
		t.Fatalf("GetLearning after outcome: %v", err)
	}
	if got.OutcomeScore == nil || *got.OutcomeScore != 0.75 {
		t.Errorf("OutcomeScore = %v, want 0.75", got.OutcomeScore)
	}
}

func TestLearningEmbeddingRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	now := time.Now()

	l := &types.Learning{ID: "lrn-1", Content: "c", CreatedAt: now}
	if err := InsertLearning(ctx, s.DB(), l); err != nil {
		t.Fatalf("InsertLearning: %v", err)
	}

	vec := []float32{0.1, 0.2, 0.3}
	if err := SetLearningEmbedding(ctx, s.DB(), "lrn-1", vec); err != nil {
		t.Fatalf("SetLearningEmbedding: %v", err)
	}

	all, err := AllLearningsWithEmbeddings(ctx, s.DB())
	if err != nil {
		t.Fatalf("AllLearningsWithEmbeddings: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("AllLearningsWithEmbeddings len = %d, want 1", len(all))
	}
	if len(all[0].Embedding) != 3 {
		t.Fatalf("Embedding len = %d, want 3", len(all[0].Embedding))
	}
	for i, v := range vec {
		if all[0].Embedding[i] != v {
			t.Errorf("Embedding[%d] = %v, want %v", i, all[0].Embedding[i], v)
		}
	}
}

func TestCandidateLifecycle(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	now := time.Now()

	c := &types.Candidate{ID: "cnd-1", Content: "maybe a pattern", Confidence: types.ConfidenceMedium, Status: types.CandidatePending, CreatedAt: now}
	if err := InsertCandidate(ctx, s.DB(), c); err != nil {
		t.Fatalf("InsertCandidate: %v", err)
	}

	got, err := GetCandidate(ctx, s.DB(), "cnd-1")
	if err != nil {
		t.Fatalf("GetCandidate: %v", err)
	}
	if got.Status != types.CandidatePending {
		t.Errorf("Status = %s, want pending", got.Status)
	}

	pending, err := ListCandidatesByStatus(ctx, s.DB(), types.CandidatePending)
	if err != nil {
		t.Fatalf("ListCandidatesByStatus: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending len = %d, want 1", len(pending))
	}

	if err := UpdateCandidateStatus(ctx, s.DB(), "cnd-1", types.CandidatePromoted); err != nil {
		t.Fatalf("UpdateCandidateStatus: %v", err)
	}
	got, err = GetCandidate(ctx, s.DB(), "cnd-1")
	if err != nil {
		t.Fatalf("GetCandidate after promote: %v", err)
	}
	if got.Status != types.CandidatePromoted {
		t.Errorf("Status = %s, want promoted", got.Status)
	}

	pending, err = ListCandidatesByStatus(ctx, s.DB(), types.CandidatePending)
	if err != nil {
		t.Fatalf("ListCandidatesByStatus after promote: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending len = %d, want 0 after promotion", len(pending))
	}
}

func TestEdgeInsertAndQuery(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)
	now := time.Now()

	e := &types.Edge{
		FromType: types.NodeLearning, FromID: "lrn-1",
		ToType: types.NodeFile, ToID: "internal/store/store.go",
		Type: types.EdgeAnchoredTo, Weight: 1.0, Metadata: "{}", CreatedAt: now,
	}
	id, err := InsertEdge(ctx, s.DB(), e)
	if err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if id == 0 {
		t.Fatal("InsertEdge returned zero id")
	}

	from, err := EdgesFrom(ctx, s.DB(), types.NodeLearning, "lrn-1", nil)
	if err != nil {
		t.Fatalf("EdgesFrom: %v", err)
	}
	if len(from) != 1 {
		t.Fatalf("EdgesFrom len = %d, want 1", len(from))
	}

	to, err := EdgesTo(ctx, s.DB(), types.NodeFile, "internal/store/store.go")
	if err != nil {
		t.Fatalf("EdgesTo: %v", err)
	}
	if len(to) != 1 {
		t.Fatalf("EdgesTo len = %d, want 1", len(to))
	}

	if err := InvalidateEdge(ctx, s.DB(), id, now); err != nil {
		t.Fatalf("InvalidateEdge: %v", err)
	}
	from, err = EdgesFrom(ctx, s.DB(), types.NodeLearning, "lrn-1", nil)
	if err != nil {
		t.Fatalf("EdgesFrom after invalidate: %v", err)
	}
	if len(from) != 0 {
		t.Errorf("EdgesFrom after invalidate = %v, want empty (invalidated edges are excluded)", from)
	}

	if err := InvalidateEdge(ctx, s.DB(), id, now); err == nil {
		t.Error("expected error invalidating an already-invalidated edge")
	}
}

func TestKVStoreHelpers(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)

	if err := SetSyncConfig(ctx, s.DB(), "last_export", "2026-01-01T00:00:00Z"); err != nil {
		t.Fatalf("SetSyncConfig: %v", err)
	}
	val, ok, err := GetSyncConfig(ctx, s.DB(), "last_export")
	if err != nil {
		t.Fatalf("GetSyncConfig: %v", err)
	}
	if !ok || val != "2026-01-01T00:00:00Z" {
		t.Errorf("GetSyncConfig = %q, %v, want 2026-01-01T00:00:00Z, true", val, ok)
	}

	if _, ok, err := GetSyncConfig(ctx, s.DB(), "missing-key"); err != nil || ok {
		t.Errorf("GetSyncConfig(missing) = ok:%v err:%v, want ok:false", ok, err)
	}

	if err := SetOrchestratorState(ctx, s.DB(), "lease_duration_minutes", "45"); err != nil {
		t.Fatalf("SetOrchestratorState: %v", err)
	}
	val, ok, err = GetOrchestratorState(ctx, s.DB(), "lease_duration_minutes")
	if err != nil || !ok || val != "45" {
		t.Errorf("GetOrchestratorState = %q, %v, err:%v, want 45, true", val, ok, err)
	}
}
