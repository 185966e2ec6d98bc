package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tbadri/ragchat/internal/config"
	"github.com/tbadri/ragchat/internal/domain/jobmodel"
	"github.com/tbadri/ragchat/internal/job"
	"github.com/tbadri/ragchat/internal/metrics"
	"github.com/tbadri/ragchat/internal/rag"
	"github.com/tbadri/ragchat/pkg/logging"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           *logging.Logger
)

type JobHandler struct {
	service *job.Service
	rag     rag.Service
}

func InitJobHandler(jobService *job.Service, ragService rag.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService, rag: ragService}

		logJH = logging.NewLogger("JobHandler")
		logRH = logging.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})
}

type newJobData struct {
	id             string
	traceId        string
	documentName   string
	documentSource string
}

func CreateNewIngestJob(newJob newJobData) {
	logJH.Info("Queueing ingest job", "traceId", newJob.traceId, "jobId", newJob.id)
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobmodel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

func ragService() rag.Service {
	if handlerInstance == nil {
		return nil
	}
	return handlerInstance.rag
}

func (h *JobHandler) pushToJobChannel(newJob newJobData) {
	_job := jobmodel.Job{
		Id:          newJob.id,
		TraceId:     newJob.traceId,
		CreatedTime: time.Now(),
		Status:      jobmodel.JobStatusQueued,
		CurrentStep: jobmodel.IngestInit,
		JobPayload: jobmodel.JobPayload{
			DocumentName: newJob.documentName,
			SourcePath:   newJob.documentSource,
		},
	}

	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.traceId)
	if err := h.service.JobStore.SaveJob(ctxC, _job); err != nil {
		logJH.Error("Failed to persist queued job", "err", err)
	}

	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //blocking send keeps backpressure on uploads
	logJH.Info("Created new ingest job")

	// Every ingest job gets a dispatcher signal: embedding a whole
	// document is slow external work, so scale up eagerly. The pool
	// sheds idle workers on its own.
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1)
	metrics.StartDispatcherSignalCount()
	logJH.Debug("Dispatcher signal", "requestCount", accurateCount)
	h.service.DispatcherChannel <- true
}
