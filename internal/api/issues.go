package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/core"
)

// handleIssue accepts a Jira webhook. It answers once the model has replied
// and the write-back is scheduled; the write-back itself is not awaited.
func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		respondDetail(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	data, fieldErrs := core.DecodeIssueData(body)
	if len(fieldErrs) > 0 {
		s.logger.Debug("rejected webhook payload", "errors", fieldErrs.Error())
		respondDetail(w, http.StatusUnprocessableEntity, fieldErrs)
		return
	}

	if _, err := s.intake.Submit(r.Context(), data); err != nil {
		message := err.Error()
		var domErr *core.DomainError
		if errors.As(err, &domErr) {
			message = domErr.Message
		}
		respondJSON(w, httpStatusForUpstreamError(err), map[string]interface{}{
			"detail":   message,
			"category": core.GetCategory(err),
		})
		return
	}

	respondJSON(w, http.StatusOK, "OK")
}
