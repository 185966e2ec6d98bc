package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tbadri/ragchat/internal/adapter"
	"github.com/tbadri/ragchat/internal/adapter/utils"
	"github.com/tbadri/ragchat/internal/api"
	"github.com/tbadri/ragchat/pkg/logging"
)

var logRH *logging.Logger

// HealthHandler godoc
// @Summary      Liveness probe
// @Tags         Operations
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /health [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

// ChatHandler godoc
// @Summary      Send a chat message
// @Description  Runs the full retrieval and generation pipeline inline and returns the assistant's reply.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest   true  "Message and optional conversation ID"
// @Success      200      {object}  api.ChatResponse  "Assistant reply"
// @Failure      400      {object}  api.ErrorResponse "Invalid request data"
// @Failure      503      {object}  api.ErrorResponse "Generation backend unavailable"
// @Router       /chat [post]
func ChatHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		logRH.Warn("Invalid Context by request", "remote", request.RemoteAddr)
		return
	}

	var requestData api.ChatRequest
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the Chat handler reader", "error", err)
		}
	}(request.Body)
	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || requestData.Message == "" {
		logRH.Warn("Bad Chat Request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_input", "message is required")
		return
	}

	conversationId := requestData.ConversationId
	if conversationId == "" {
		conversationId = utils.GetNewUUID()
		logRH.Debug("New conversation", "conversationId", conversationId)
	}

	svc := ragService()
	if svc == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "internal", "service not ready")
		return
	}

	answer, err := svc.Chat(request.Context(), conversationId, requestData.Message)
	if err != nil {
		writeFaultResponse(w, err)
		return
	}

	writeJsonResponse(w, http.StatusOK, api.ChatResponse{
		ConversationId: conversationId,
		ResponseText:   answer,
	})
}

// IngestHandler godoc
// @Summary      Ingest raw text as a document
// @Description  Chunks and embeds the given text inline and stores it under a new document.
// @Tags         Ingestion
// @Accept       json
// @Produce      json
// @Param        request  body      api.IngestRequest   true  "Document name and text"
// @Success      201      {object}  api.IngestResponse
// @Failure      400      {object}  api.ErrorResponse
// @Router       /ingest [post]
func IngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return
	}

	var requestData api.IngestRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil || requestData.DocumentName == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_input", "document_name and text are required")
		return
	}

	svc := ragService()
	if svc == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "internal", "service not ready")
		return
	}

	documentId, chunksAdded, err := svc.Ingest(r.Context(), requestData.DocumentName, requestData.Text)
	if err != nil {
		writeFaultResponse(w, err)
		return
	}

	writeJsonResponse(w, http.StatusCreated, api.IngestResponse{
		DocumentId:  documentId,
		ChunksAdded: chunksAdded,
	})
}

// IngestFileHandler godoc
// @Summary      Upload a document for ingestion
// @Description  Receives a file via multipart/form-data, saves it to a temporary directory, and queues an ingestion job.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        document_name  formData  string  true  "The display name of the document"
// @Param        document       formData  file    true  "The PDF, DOCX, RTF or text file to upload"
// @Success      202  {object}  api.InitJobResponse "Accepted - track via status_url"
// @Failure      400  {object}  api.ErrorResponse "Missing fields or file too large"
// @Failure      500  {object}  api.ErrorResponse "Storage or write error"
// @Router       /ingest/file [post]
func IngestFileHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return
	}

	targetDir, errString := getTargetDirectory()
	if errString != "" {
		logRH.Error("Couldn't get target directory", "err", errString)
		WriteErrorResponse(w, http.StatusInternalServerError, "storage_unavailable", errString)
		return
	}

	const maxUploadSize = 32 << 20 //32mb
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_input", "File too large or bad request")
		return
	}

	docName := r.FormValue("document_name")
	if docName == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_input", "document_name is required")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_input", "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileMetadata.Filename)
	tempFilePath := filepath.Join(targetDir, filename)
	destinationFileWriter, err := os.Create(tempFilePath)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, "storage_unavailable", "Storage error")
		return
	}
	defer destinationFileWriter.Close()

	if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, "storage_unavailable", "Write error")
		return
	}

	newJob := newJobData{
		id:             utils.GetNewUUID(),
		traceId:        traceFrom(r.Context()),
		documentName:   docName,
		documentSource: tempFilePath,
	}
	CreateNewIngestJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}

// GetStatusHandler godoc
// @Summary      Get ingestion job status
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse
// @Failure      404  {object}  api.ErrorResponse "Job not found"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	idString := utils.GetChiURLParam(r, "id")
	logRH.Debug("Get Status Request", "URL path", r.URL.Path)

	result, isFound := GetJobStatus(idString, traceFrom(r.Context()))
	if idString == "" || !isFound {
		WriteErrorResponse(w, http.StatusNotFound, "not_found", "Job not found")
		return
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToJobResponse(result))
}

// DeleteDocumentHandler godoc
// @Summary      Delete a document and its chunks
// @Tags         Ingestion
// @Produce      json
// @Param        id   path  string  true  "Document ID"
// @Success      204  "Deleted"
// @Failure      404  {object}  api.ErrorResponse "Document not found"
// @Router       /documents/{id} [delete]
func DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	svc := ragService()
	if svc == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "internal", "service not ready")
		return
	}

	if err := svc.DeleteDocument(r.Context(), utils.GetChiURLParam(r, "id")); err != nil {
		writeFaultResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatsHandler godoc
// @Summary      Corpus and conversation counters
// @Tags         Operations
// @Produce      json
// @Success      200  {object}  api.StatsResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /stats [get]
func StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	svc := ragService()
	if svc == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "internal", "service not ready")
		return
	}

	counts, err := svc.Stats(r.Context())
	if err != nil {
		writeFaultResponse(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToStatsResponse(counts))
}
