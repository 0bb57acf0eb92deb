package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

type fakeEmbedder struct {
	vec   []float64
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, input string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.vec != nil {
		return f.vec, nil
	}
	// Deterministic toy embedding: counts of a few marker words.
	return []float64{
		float64(strings.Count(strings.ToLower(input), "refund")),
		float64(strings.Count(strings.ToLower(input), "shipping")),
		1,
	}, nil
}

func TestSplitChunks(t *testing.T) {
	text := strings.Repeat("a", 2500)
	chunks := SplitChunks(text, 1000)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 1000 || len(chunks[2]) != 500 {
		t.Fatalf("unexpected chunk sizes: %d %d %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

func TestSplitChunks_NeverBreaksRunes(t *testing.T) {
	text := strings.Repeat("日本語テキスト", 300)
	for _, c := range SplitChunks(text, 1000) {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk contains a broken rune: %q", c[:20])
		}
	}
}

func TestSplitChunks_Empty(t *testing.T) {
	if got := SplitChunks("", 1000); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestUpload_EmbedsChunksAndMarksReady(t *testing.T) {
	store := NewMemoryStore()
	emb := &fakeEmbedder{}
	svc := NewService(store, emb)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, UploadRequest{
		WorkspaceID: "w1",
		Title:       "Refund policy",
		Category:    "billing",
		FileName:    "refunds.md",
		Content:     strings.Repeat("Our refund policy allows returns within 30 days. ", 50),
		CreatedBy:   "u1",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.Status != StatusReady {
		t.Fatalf("expected ready, got %q", doc.Status)
	}
	if emb.calls < 2 {
		t.Fatalf("expected multiple chunk embeddings, got %d", emb.calls)
	}

	got, err := store.GetDocument(ctx, "w1", doc.ID)
	if err != nil || got.Status != StatusReady {
		t.Fatalf("stored doc: %+v err=%v", got, err)
	}
}

func TestUpload_RejectsUnsupportedFileType(t *testing.T) {
	svc := NewService(NewMemoryStore(), &fakeEmbedder{})

	_, err := svc.Upload(context.Background(), UploadRequest{
		WorkspaceID: "w1",
		FileName:    "report.pdf",
		Content:     "binary stuff",
	})
	if err == nil || !strings.Contains(err.Error(), "unsupported file type") {
		t.Fatalf("expected unsupported file type error, got %v", err)
	}
}

func TestUpload_EmbedFailureMarksDocumentFailed(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, &fakeEmbedder{err: errors.New("quota exceeded")})
	ctx := context.Background()

	_, err := svc.Upload(ctx, UploadRequest{
		WorkspaceID: "w1",
		FileName:    "notes.txt",
		Content:     "some content",
	})
	if err == nil {
		t.Fatal("expected error")
	}

	docs, _ := store.ListDocuments(ctx, "w1")
	if len(docs) != 1 || docs[0].Status != StatusFailed {
		t.Fatalf("expected one failed doc, got %+v", docs)
	}
}

func TestUpload_DefaultsTitleToFileName(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, &fakeEmbedder{})

	doc, err := svc.Upload(context.Background(), UploadRequest{
		WorkspaceID: "w1",
		FileName:    "faq.txt",
		Content:     "frequently asked questions",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.Title != "faq.txt" {
		t.Fatalf("expected file name as title, got %q", doc.Title)
	}
}

func TestSearch_ReturnsRelevantChunksOnly(t *testing.T) {
	store := NewMemoryStore()
	emb := &fakeEmbedder{}
	svc := NewService(store, emb)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, UploadRequest{
		WorkspaceID: "w1",
		FileName:    "refunds.txt",
		Content:     "refund refund refund policy details",
	}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := svc.Upload(ctx, UploadRequest{
		WorkspaceID: "w2",
		FileName:    "other.txt",
		Content:     "refund text in another workspace",
	}); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	chunks, err := svc.Search(ctx, "w1", "how does the refund work")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected one workspace-scoped hit, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0], "refund") {
		t.Fatalf("unexpected chunk: %q", chunks[0])
	}
}

func TestDelete_RemovesDocumentAndChunks(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, &fakeEmbedder{})
	ctx := context.Background()

	doc, err := svc.Upload(ctx, UploadRequest{WorkspaceID: "w1", FileName: "a.txt", Content: "refund info"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := svc.Delete(ctx, "w1", doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, "w1", doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	chunks, _ := store.MatchChunks(ctx, "w1", []float64{1, 0, 1}, 0, 10)
	if len(chunks) != 0 {
		t.Fatalf("expected chunks gone, got %d", len(chunks))
	}
}
