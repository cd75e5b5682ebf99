package http

import (
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/periko-gan/linkcurt-backend/internal/database"
	"github.com/periko-gan/linkcurt-backend/internal/models"
	"github.com/periko-gan/linkcurt-backend/pkg/response"
)

// createVisitRequest represents the request payload for recording a visit.
type createVisitRequest struct {
	LinkID int64 `json:"id_link"`
}

// visitResponse represents the response payload for a visit operation.
type visitResponse struct {
	ID        int64     `json:"id"`
	LinkID    int64     `json:"id_link"`
	UserID    *int64    `json:"id_user,omitempty"`
	VisitedAt time.Time `json:"visited_at"`
	OS        string    `json:"os,omitempty"`
	Browser   string    `json:"browser,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	Country   string    `json:"country,omitempty"`
	City      string    `json:"city,omitempty"`
}

func toVisitResponse(visit *models.Visit) visitResponse {
	return visitResponse{
		ID:        visit.ID,
		LinkID:    visit.LinkID,
		UserID:    visit.UserID,
		VisitedAt: visit.VisitedAt,
		OS:        visit.OS,
		Browser:   visit.Browser,
		IPAddress: visit.IPAddress,
		Country:   visit.Country,
		City:      visit.City,
	}
}

func toVisitResponses(visits []models.Visit) []visitResponse {
	resp := make([]visitResponse, 0, len(visits))
	for i := range visits {
		resp = append(resp, toVisitResponse(&visits[i]))
	}
	return resp
}

// clientIP extracts the request's client address. The RealIP middleware
// has already folded proxy headers into RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// handleRecordVisit handles POST requests to record an access event
// against a link. The visit is attributed to the authenticated user.
func handleRecordVisit(svc VisitService) http.HandlerFunc {
	const op = "api.http.handleRecordVisit"
	const successMsg = "The visit was successfully recorded."

	return func(w http.ResponseWriter, r *http.Request) {
		var req createVisitRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		var userID *int64
		if user, ok := UserFromContext(r.Context()); ok {
			userID = &user.ID
		}

		visit, err := svc.RecordVisit(r.Context(), req.LinkID, userID, r.UserAgent(), clientIP(r))
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, toVisitResponse(visit)))
	}
}

// handleGetVisit handles GET requests for a single visit by identifier.
func handleGetVisit(svc VisitService) http.HandlerFunc {
	const op = "api.http.handleGetVisit"
	const successMsg = "The visit was successfully retrieved."

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		visit, err := svc.GetVisit(r.Context(), id)
		if err != nil {
			if errors.Is(err, database.ErrVisitNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toVisitResponse(visit)))
	}
}

// handleListVisitsByLink handles GET requests for the visits recorded
// against a link.
func handleListVisitsByLink(svc VisitService) http.HandlerFunc {
	const op = "api.http.handleListVisitsByLink"
	const successMsg = "The visits were successfully retrieved."

	return func(w http.ResponseWriter, r *http.Request) {
		linkID, err := parseIDParam(r, "id")
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		visits, err := svc.ListVisitsByLink(r.Context(), linkID)
		if err != nil {
			if errors.Is(err, database.ErrLinkNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toVisitResponses(visits)))
	}
}

// handleListVisitsByUser handles GET requests for the visits triggered
// by a user.
func handleListVisitsByUser(svc VisitService) http.HandlerFunc {
	const op = "api.http.handleListVisitsByUser"
	const successMsg = "The visits were successfully retrieved."

	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := parseIDParam(r, "id")
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		visits, err := svc.ListVisitsByUser(r.Context(), userID)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toVisitResponses(visits)))
	}
}

// handleRemoveVisit handles DELETE requests for a visit. Admin only.
func handleRemoveVisit(svc VisitService) http.HandlerFunc {
	const op = "api.http.handleRemoveVisit"
	const successMsg = "The visit was successfully deleted."

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := svc.RemoveVisit(r.Context(), id); err != nil {
			if errors.Is(err, database.ErrVisitNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg))
	}
}
