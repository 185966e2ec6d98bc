package middleware

import (
	"net/http"
	"strconv"

	"github.com/tbadri/ragchat/internal/handlers"
	"github.com/tbadri/ragchat/internal/metrics"
	"github.com/tbadri/ragchat/pkg/logging"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logging.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorCode    string
	errorMessage string
}

var HealthHandler = Wrap(handlers.HealthHandler)
var ChatHandler = Wrap(handlers.ChatHandler)
var IngestHandler = Wrap(handlers.IngestHandler)
var IngestFileHandler = Wrap(handlers.IngestFileHandler)
var GetStatusHandler = Wrap(handlers.GetStatusHandler)
var DeleteDocumentHandler = Wrap(handlers.DeleteDocumentHandler)
var StatsHandler = Wrap(handlers.StatsHandler)

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200}
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
	}
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logging.NewLogger("middleware")
	re.logger.Debug("New request received")

	re = injectTrace(re)
	re = authenticate(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re = rateLimiter(re)
	return re
}
