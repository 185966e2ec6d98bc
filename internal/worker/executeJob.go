package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tbadri/ragchat/internal/config"
	"github.com/tbadri/ragchat/internal/domain/jobmodel"
	"github.com/tbadri/ragchat/internal/metrics"
	"github.com/tbadri/ragchat/internal/rag/ingest"
)

func executeJob(currentJob jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(currentJob.Status), time.Since(start))
	}()

	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, currentJob.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.IngestJobTimeout)
	defer cancel()

	logger.Debug("Processing job", "jobId", currentJob.Id)

	saveJobState(ctx, currentJob, jobmodel.JobStatusRunning)

	currentJob = ingest.ProcessDocumentIngestion(ctx, currentJob, _ingestor)

	saveJobState(ctx, currentJob, currentJob.Status)
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()
}

func saveJobState(ctx context.Context, currentJob jobmodel.Job, status jobmodel.JobStatus) {
	currentJob.Status = status
	if err := _jobService.JobStore.SaveJob(ctx, currentJob); err != nil {
		logger.Error("Failed to persist job state", "err", err)
	}
}
