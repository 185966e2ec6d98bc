package api

import "time"

// requests---------------------

type ChatRequest struct {
	Message        string `json:"message" validate:"required"`
	ConversationId string `json:"conversation_id,omitempty"`
}

type IngestRequest struct {
	DocumentName string `json:"document_name" validate:"required"`
	Text         string `json:"text" validate:"required"`
}

// responses--------------------

type ChatResponse struct {
	ConversationId string `json:"conversation_id"`
	ResponseText   string `json:"response_text"`
}

type IngestResponse struct {
	DocumentId  string `json:"document_id"`
	ChunksAdded int    `json:"chunks_added"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	Status    string            `json:"status"`
	Step      string            `json:"step,omitempty"`
	Result    *IngestResponse   `json:"result,omitempty"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    string `json:"code" example:"invalid_input"`
	Message string `json:"message" example:"unsupported document type"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type StatsResponse struct {
	Status    string `json:"status" example:"ok"`
	Documents int64  `json:"documents"`
	Chunks    int64  `json:"chunks"`
	Messages  int64  `json:"messages"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// ErrorResponse is the stable failure envelope every endpoint shares.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code" example:"not_found"`
	Message string `json:"message" example:"document not found"`
}
