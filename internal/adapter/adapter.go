package adapter

import (
	"fmt"
	"net/http"

	"github.com/tbadri/ragchat/internal/api"
	"github.com/tbadri/ragchat/internal/domain/fault"
	"github.com/tbadri/ragchat/internal/domain/jobmodel"
	"github.com/tbadri/ragchat/internal/domain/model"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToJobResponse(job jobmodel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != "" {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	var result *api.IngestResponse
	if job.Status == jobmodel.JobStatusComplete {
		result = &api.IngestResponse{
			DocumentId:  job.JobPayload.DocumentId,
			ChunksAdded: job.JobPayload.ChunksAdded,
		}
	}

	return api.JobResponse{
		Id:        job.Id,
		Status:    string(job.Status),
		Step:      string(job.CurrentStep),
		Result:    result,
		Error:     errorPtr,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
	}
}

func ToStatsResponse(counts model.Counts) api.StatsResponse {
	return api.StatsResponse{
		Status:    "ok",
		Documents: counts.Documents,
		Chunks:    counts.Chunks,
		Messages:  counts.Messages,
	}
}

func ToErrorResponse(code, message string) api.ErrorResponse {
	return api.ErrorResponse{Error: api.ErrorBody{Code: code, Message: message}}
}

// HttpStatusFor maps an error classification to the status code the
// endpoint returns. Unclassified errors are treated as our fault.
func HttpStatusFor(err error) (int, string) {
	class, ok := fault.ClassOf(err)
	if !ok {
		return http.StatusInternalServerError, "internal"
	}
	switch class {
	case fault.InvalidInput:
		return http.StatusBadRequest, string(class)
	case fault.NotFound:
		return http.StatusNotFound, string(class)
	case fault.Unauthorized:
		return http.StatusUnauthorized, string(class)
	case fault.RateLimited:
		return http.StatusTooManyRequests, string(class)
	case fault.BadUpstreamRequest, fault.EmbeddingUnavailable:
		return http.StatusBadGateway, string(class)
	case fault.UpstreamUnavailable:
		return http.StatusServiceUnavailable, string(class)
	case fault.StorageUnavailable:
		return http.StatusInternalServerError, string(class)
	default:
		return http.StatusInternalServerError, string(class)
	}
}
