package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tbadri/ragchat/internal/domain/fault"
	"github.com/tbadri/ragchat/pkg/logging"
)

func TestWriteFaultResponse_HidesInternalCause(t *testing.T) {
	logRH = logging.NewLogger("RequestHandler")

	rec := httptest.NewRecorder()
	err := fault.New(fault.StorageUnavailable,
		fmt.Errorf("creating document: sqlite I/O error at /var/lib/ragchat/ragchat.db"))
	writeFaultResponse(rec, err)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"code":"storage_unavailable"`) {
		t.Errorf("missing stable error code in body: %s", body)
	}
	for _, leak := range []string{"sqlite", "/var/lib", "creating document"} {
		if strings.Contains(body, leak) {
			t.Errorf("internal cause %q leaked to client: %s", leak, body)
		}
	}
}

func TestWriteFaultResponse_PerClassMessages(t *testing.T) {
	logRH = logging.NewLogger("RequestHandler")

	tests := []struct {
		name            string
		err             error
		expectedHTTP    int
		expectedCode    string
		internalDetails string
	}{
		{
			name:            "embedding outage hides SDK message",
			err:             fault.Errorf(fault.EmbeddingUnavailable, "POST https://api.openai.com/v1/embeddings: 500"),
			expectedHTTP:    http.StatusBadGateway,
			expectedCode:    "embedding_unavailable",
			internalDetails: "api.openai.com",
		},
		{
			name:            "not found hides entity id",
			err:             fault.Errorf(fault.NotFound, "document 550e8400 does not exist"),
			expectedHTTP:    http.StatusNotFound,
			expectedCode:    "not_found",
			internalDetails: "550e8400",
		},
		{
			name:            "unclassified error stays generic",
			err:             errors.New("nil pointer in provider init"),
			expectedHTTP:    http.StatusInternalServerError,
			expectedCode:    "internal",
			internalDetails: "nil pointer",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeFaultResponse(rec, tc.err)

			if rec.Code != tc.expectedHTTP {
				t.Errorf("expected %d, got %d", tc.expectedHTTP, rec.Code)
			}
			body := rec.Body.String()
			if !strings.Contains(body, `"code":"`+tc.expectedCode+`"`) {
				t.Errorf("missing code %q in body: %s", tc.expectedCode, body)
			}
			if strings.Contains(body, tc.internalDetails) {
				t.Errorf("internal detail %q leaked to client: %s", tc.internalDetails, body)
			}
		})
	}
}
