package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tbadri/ragchat/internal/domain/fault"
	"github.com/tbadri/ragchat/internal/domain/jobmodel"
)

type mockIngestor struct {
	ingestFunc func(ctx context.Context, name, text string) (string, int, error)
}

func (m *mockIngestor) Ingest(ctx context.Context, name, text string) (string, int, error) {
	if m.ingestFunc != nil {
		return m.ingestFunc(ctx, name, text)
	}
	return "doc-1", 3, nil
}

func TestGetDocType(t *testing.T) {
	tests := []struct {
		path     string
		expected docType
	}{
		{"test.pdf", typePDF},
		{"DOC.DOCX", typeTextLike},
		{"notes.txt", typeTextLike},
		{"notes.rtf", typeTextLike},
		{"image.png", typeUnsupported},
		{"noextension", typeUnsupported},
	}

	for _, tt := range tests {
		if got := getDocType(tt.path); got != tt.expected {
			t.Errorf("getDocType(%s) = %v; want %v", tt.path, got, tt.expected)
		}
	}
}

func TestJoinPages(t *testing.T) {
	pages := []rawPage{
		{Number: 1, Content: "first page"},
		{Number: 2, Content: "   "},
		{Number: 3, Content: "third page"},
	}
	got := joinPages(pages)
	want := "first page\n\nthird page"
	if got != want {
		t.Errorf("joinPages = %q; want %q", got, want)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessDocumentIngestion_Success(t *testing.T) {
	path := writeTempFile(t, "report.txt", "hello from a text file")

	var gotText string
	ingestor := &mockIngestor{
		ingestFunc: func(ctx context.Context, name, text string) (string, int, error) {
			gotText = text
			return "doc-42", 5, nil
		},
	}

	job := jobmodel.Job{
		Id: "job-1",
		JobPayload: jobmodel.JobPayload{
			DocumentName: "report.txt",
			SourcePath:   path,
		},
		Status: jobmodel.JobStatusQueued,
	}

	done := ProcessDocumentIngestion(context.Background(), job, ingestor)

	if done.Status != jobmodel.JobStatusComplete {
		t.Fatalf("expected COMPLETE, got %s (error %+v)", done.Status, done.Error)
	}
	if done.JobPayload.DocumentId != "doc-42" || done.JobPayload.ChunksAdded != 5 {
		t.Errorf("payload not filled: %+v", done.JobPayload)
	}
	if gotText != "hello from a text file" {
		t.Errorf("unexpected extracted text %q", gotText)
	}
	if done.EndTime.IsZero() {
		t.Error("end time not set")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("uploaded file should be removed after ingestion")
	}
}

func TestProcessDocumentIngestion_UnsupportedType(t *testing.T) {
	job := jobmodel.Job{
		Id:         "job-2",
		JobPayload: jobmodel.JobPayload{DocumentName: "pic.png", SourcePath: "/tmp/pic.png"},
	}

	done := ProcessDocumentIngestion(context.Background(), job, &mockIngestor{})
	if done.Status != jobmodel.JobStatusError {
		t.Fatalf("expected ERROR, got %s", done.Status)
	}
	if done.Error.Code != string(fault.InvalidInput) {
		t.Errorf("expected invalid_input code, got %q", done.Error.Code)
	}
	if done.Error.Retry {
		t.Error("unsupported type is not retryable")
	}
}

func TestProcessDocumentIngestion_PipelineFailureMarksRetry(t *testing.T) {
	path := writeTempFile(t, "doc.txt", "content")

	ingestor := &mockIngestor{
		ingestFunc: func(ctx context.Context, name, text string) (string, int, error) {
			return "", 0, fault.Errorf(fault.EmbeddingUnavailable, "provider down")
		},
	}
	job := jobmodel.Job{
		Id:         "job-3",
		JobPayload: jobmodel.JobPayload{DocumentName: "doc.txt", SourcePath: path},
	}

	done := ProcessDocumentIngestion(context.Background(), job, ingestor)
	if done.Status != jobmodel.JobStatusError {
		t.Fatalf("expected ERROR, got %s", done.Status)
	}
	if done.Error.Code != string(fault.EmbeddingUnavailable) {
		t.Errorf("expected embedding_unavailable code, got %q", done.Error.Code)
	}
	if strings.Contains(done.Error.Message, "provider down") {
		t.Errorf("internal cause leaked into job error: %q", done.Error.Message)
	}
	if !done.Error.Retry {
		t.Error("embedding outage should be retryable")
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("file should survive a failed ingestion for retry")
	}
}
