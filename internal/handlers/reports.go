package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/comment-platform/internal/platform/api"
	"github.com/example/comment-platform/internal/platform/auth"
	"github.com/example/comment-platform/internal/service"
	"github.com/example/comment-platform/internal/store"
)

type createReportRequest struct {
	Reason      string  `json:"reason"`
	Description *string `json:"description,omitempty"`
}

type reviewReportRequest struct {
	AdminResponse string `json:"admin_response"`
}

type reportListResponse struct {
	Reports []store.Report `json:"reports"`
}

type reportDetailsListResponse struct {
	Reports []service.ReportDetails `json:"reports"`
}

type reportFilterRequest struct {
	store.ReportFilter
	CommenterID string `json:"commenter_id"`
}

// CreateReport handles POST /v1/comments/{comment_id}/reports
func CreateReport(rs *service.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}

		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}

		var req createReportRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		if strings.TrimSpace(req.Reason) == "" {
			api.BadRequest(w, "EMPTY_REASON", "reason must not be empty", "", nil)
			return
		}

		created, err := rs.Create(r.Context(), store.Report{
			CommentID:   commentID,
			ReporterID:  userID,
			Reason:      req.Reason,
			Description: req.Description,
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				api.Conflict(w, "ALREADY_REPORTED", "comment already reported by this user", "", nil)
				return
			}
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// MyReports handles GET /v1/reports/mine
func MyReports(rs *service.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}

		reports, err := rs.ByReporter(r.Context(), userID)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, reportListResponse{Reports: reports})
	}
}

// PendingReports handles GET /v1/admin/reports/pending
func PendingReports(rs *service.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		details, err := rs.UnreviewedDetails(r.Context())
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, reportDetailsListResponse{Reports: details})
	}
}

// GetReport handles GET /v1/admin/reports/{report_id}
func GetReport(rs *service.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reportID := strings.TrimSpace(chi.URLParam(r, "report_id"))
		if reportID == "" {
			api.BadRequest(w, "MISSING_ID", "report_id is required", "", nil)
			return
		}

		details, err := rs.Details(r.Context(), reportID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "report not found", "")
				return
			}
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, details)
	}
}

// ReviewReport handles POST /v1/admin/reports/{report_id}/review
func ReviewReport(rs *service.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reportID := strings.TrimSpace(chi.URLParam(r, "report_id"))
		if reportID == "" {
			api.BadRequest(w, "MISSING_ID", "report_id is required", "", nil)
			return
		}

		var req reviewReportRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}

		if err := rs.Review(r.Context(), reportID, req.AdminResponse); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "report not found or already reviewed", "")
				return
			}
			api.Internal(w, "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeactivateReport handles POST /v1/admin/reports/{report_id}/deactivate
func DeactivateReport(rs *service.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reportID := strings.TrimSpace(chi.URLParam(r, "report_id"))
		if reportID == "" {
			api.BadRequest(w, "MISSING_ID", "report_id is required", "", nil)
			return
		}

		if err := rs.Deactivate(r.Context(), reportID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "report not found or already inactive", "")
				return
			}
			api.Internal(w, "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CommentReports handles GET /v1/admin/comments/{comment_id}/reports
func CommentReports(rs *service.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}

		details, err := rs.CommentDetails(r.Context(), commentID)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, reportDetailsListResponse{Reports: details})
	}
}

// FilterReports handles POST /v1/admin/reports/filter
func FilterReports(rs *service.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reportFilterRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}

		page, err := rs.FilterDetails(r.Context(), req.ReportFilter, strings.TrimSpace(req.CommenterID))
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, page)
	}
}
