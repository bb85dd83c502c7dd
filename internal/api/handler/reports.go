package handler

import (
	"net/http"

	"github.com/tracelight/tracelight/internal/api/response"
	"github.com/tracelight/tracelight/internal/cache"
	"github.com/tracelight/tracelight/internal/report"
	"github.com/tracelight/tracelight/internal/store"
	"github.com/tracelight/tracelight/pkg/models"
)

// NewTriggerReportHandler returns an http.HandlerFunc for
// POST /api/v1/logs/{logID}/report. Generation is async; the client polls
// the returned job id.
func NewTriggerReportHandler(st store.Store, svc *report.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "logID")
		if !ok {
			return
		}

		log, err := st.GetLog(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "Log")
			return
		}

		job, err := svc.Trigger(r.Context(), log)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to start report generation", nil)
			return
		}

		response.Accepted(w, map[string]any{
			"job_id": job.ID,
			"status": job.Status,
		})
	}
}

// NewPollReportHandler returns an http.HandlerFunc for GET /api/v1/reports/{jobID}.
// Job status is read from the cache when fresh, falling back to the store;
// the report itself is attached once the job has completed.
func NewPollReportHandler(st store.Store, ca cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := parseIDParam(w, r, "jobID")
		if !ok {
			return
		}

		status, cached, err := ca.GetJobStatus(r.Context(), jobID)
		if err != nil || !cached {
			job, err := st.GetReportJob(r.Context(), jobID)
			if err != nil {
				writeStoreError(w, err, "Report job")
				return
			}
			status = job.Status
		}

		body := map[string]any{
			"job_id": jobID,
			"status": status,
		}

		switch status {
		case models.JobStatusCompleted:
			rep, err := st.GetReportByJobID(r.Context(), jobID)
			if err != nil {
				writeStoreError(w, err, "Report")
				return
			}
			body["report"] = rep
		case models.JobStatusFailed:
			if job, err := st.GetReportJob(r.Context(), jobID); err == nil && job.ErrorMessage != nil {
				body["error_message"] = *job.ErrorMessage
			}
		}

		response.JSON(w, body)
	}
}
