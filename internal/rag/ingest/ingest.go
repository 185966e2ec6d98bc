package ingest

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/tbadri/ragchat/internal/domain/fault"
	"github.com/tbadri/ragchat/internal/domain/jobmodel"
	"github.com/tbadri/ragchat/pkg/logging"
)

type rawPage struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

// Ingestor is the slice of the orchestrator file ingestion needs.
type Ingestor interface {
	Ingest(ctx context.Context, name, text string) (documentId string, chunksAdded int, err error)
}

var logger = logging.NewLogger("Document Ingestion")

// ProcessDocumentIngestion runs one queued file ingestion end to end:
// extract text from the uploaded file, feed it through the chunking
// and embedding pipeline, record the outcome on the job.
func ProcessDocumentIngestion(ctx context.Context, job jobmodel.Job, ingestor Ingestor) jobmodel.Job {
	log := logger.With("traceId", job.TraceId, "jobId", job.Id)

	docName := job.JobPayload.DocumentName
	docPath := job.JobPayload.SourcePath
	log.Debug("Processing document", "filename", docName, "path", docPath)

	job.Status = jobmodel.JobStatusRunning
	job.CurrentStep = jobmodel.IngestExtracting

	docType := getDocType(docPath)
	if docType == typeUnsupported {
		return failJob(job, fault.InvalidInput, "unsupported document type", false)
	}

	pages, err := extractText(docPath, docType)
	if err != nil {
		log.Error("Error extracting document content", "error", err)
		return failJob(job, fault.InvalidInput, "Error extracting document content", false)
	}
	log.Debug("Extracted document", "pages", len(pages))

	job.CurrentStep = jobmodel.IngestChunking
	text := joinPages(pages)

	job.CurrentStep = jobmodel.IngestEmbedding
	documentId, chunksAdded, err := ingestor.Ingest(ctx, docName, text)
	if err != nil {
		log.Error("Error ingesting document", "error", err)
		class, _ := fault.ClassOf(err)
		retry := class == fault.EmbeddingUnavailable ||
			class == fault.RateLimited ||
			class == fault.StorageUnavailable
		return failJob(job, class, fault.SafeMessage(class), retry)
	}

	if err := os.Remove(docPath); err != nil {
		log.Error("Error removing uploaded file", "error", err)
	}

	job.JobPayload.DocumentId = documentId
	job.JobPayload.ChunksAdded = chunksAdded
	job.Status = jobmodel.JobStatusComplete
	job.CurrentStep = jobmodel.Complete
	job.EndTime = time.Now()
	log.Info("document ingestion complete", "documentId", documentId, "chunks", chunksAdded)
	return job
}

func failJob(job jobmodel.Job, class fault.Class, message string, retry bool) jobmodel.Job {
	job.Status = jobmodel.JobStatusError
	job.Error = jobmodel.JobError{Code: string(class), Message: message, Retry: retry}
	job.EndTime = time.Now()
	return job
}

// joinPages flattens extracted pages into one text for the chunker;
// page boundaries become paragraph breaks.
func joinPages(pages []rawPage) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p.Content) == "" {
			continue
		}
		parts = append(parts, p.Content)
	}
	return strings.Join(parts, "\n\n")
}
