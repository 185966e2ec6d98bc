package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tbadri/ragchat/internal/adapter"
	"github.com/tbadri/ragchat/internal/config"
	"github.com/tbadri/ragchat/internal/domain/fault"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logRH.Error("Error encoding response", "error", err)
	}
}

// WriteErrorResponse emits the shared failure envelope.
func WriteErrorResponse(w http.ResponseWriter, httpCode int, code string, message string) {
	writeJsonResponse(w, httpCode, adapter.ToErrorResponse(code, message))
}

// writeFaultResponse maps a classified error to its status code and
// envelope in one step. The wrapped cause goes to the log only;
// clients get the fixed per-class text.
func writeFaultResponse(w http.ResponseWriter, err error) {
	httpCode, code := adapter.HttpStatusFor(err)
	logRH.Error("request failed", "status", httpCode, "error", err)
	WriteErrorResponse(w, httpCode, code, fault.SafeMessageOf(err))
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logRH.Warn("context error", "error", ctx.Err())
		return false
	}

	select {
	case <-ctx.Done():
		logRH.Warn("context cancelled")
		return false
	default:
		return true
	}
}

func traceFrom(ctx context.Context) string {
	if trace, ok := ctx.Value(config.TRACE_ID_KEY).(string); ok {
		return trace
	}
	return ""
}

func getTargetDirectory() (string, string) {
	root, err := os.Getwd()
	if err != nil {
		return "", "Storage Error"
	}

	targetDir := filepath.Join(root, "temporary_data")
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", "Storage Error"
	}
	return targetDir, ""
}
