package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/periko-gan/linkcurt-backend/internal/database"
	"github.com/periko-gan/linkcurt-backend/internal/models"
	"github.com/periko-gan/linkcurt-backend/internal/service"
	"github.com/periko-gan/linkcurt-backend/pkg/response"
	"github.com/skip2/go-qrcode"
)

const dateLayout = "2006-01-02"

// handlePing handles health check requests to ensure the server is running.
func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// createLinkRequest represents the request payload for shortening a link.
// Field-level validation is left to the allocator, which reports the
// exact failure.
type createLinkRequest struct {
	OriginalLink string `json:"original_link"`
	UserID       int64  `json:"id_user"`
}

// linkResponse represents the response payload for a link operation.
type linkResponse struct {
	ID               int64     `json:"id"`
	OriginalLink     string    `json:"original_link"`
	ShortLink        string    `json:"short_link"`
	UserID           int64     `json:"id_user"`
	RegistrationDate time.Time `json:"registration_date"`
}

// toLinkResponse converts a link model from the business layer into a response payload.
func toLinkResponse(link *models.Link) linkResponse {
	return linkResponse{
		ID:               link.ID,
		OriginalLink:     link.OriginalLink,
		ShortLink:        link.ShortLink,
		UserID:           link.UserID,
		RegistrationDate: link.RegistrationDate,
	}
}

func toLinkResponses(links []models.Link) []linkResponse {
	resp := make([]linkResponse, 0, len(links))
	for i := range links {
		resp = append(resp, toLinkResponse(&links[i]))
	}
	return resp
}

// parseIDParam extracts a numeric route parameter.
func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// handleCreateLink handles POST requests to shorten a link.
//
// The handler calls the link allocator and maps its validation,
// conflict and exhaustion failures onto the API error envelope.
func handleCreateLink(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleCreateLink"
	const successMsg = "The link has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req createLinkRequest

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

		link, err := svc.ShortenLink(r.Context(), req.OriginalLink, req.UserID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidURL):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidURLResponse)
			case errors.Is(err, service.ErrUserIDRequired):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.UserIDRequiredResponse)
			case errors.Is(err, database.ErrLinkExists):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.LinkExistsResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link)))
	}
}

// resolveResponse carries the original link a short link points to.
type resolveResponse struct {
	OriginalLink string `json:"original_link"`
}

// handleResolveShortLink handles GET requests to resolve a short link
// into the original URL. The route parameter may be the bare 4-character
// code or a URL-escaped short URL including the canonical domain.
func handleResolveShortLink(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleResolveShortLink"
	const successMsg = "The short link was successfully resolved."

	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "shortLink")
		if dec, err := url.PathUnescape(raw); err == nil {
			raw = dec
		}

		link, err := svc.ResolveShortLink(r.Context(), raw)
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
		render.JSON(w, r, response.SuccessResponse(successMsg, resolveResponse{OriginalLink: link.OriginalLink}))
	}
}

// handleGetLink handles GET requests for a single link by identifier.
func handleGetLink(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleGetLink"
	const successMsg = "The link was successfully retrieved."

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		link, err := svc.GetLink(r.Context(), id)
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
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link)))
	}
}

// modifyLinkRequest represents the request payload for updating a link's target.
type modifyLinkRequest struct {
	OriginalLink string `json:"original_link"`
}

// handleModifyLink handles PUT requests to replace a link's original URL.
func handleModifyLink(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleModifyLink"
	const successMsg = "The link was successfully modified."

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		var req modifyLinkRequest

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

		link, err := svc.ModifyLink(r.Context(), id, req.OriginalLink)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidURL):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidURLResponse)
			case errors.Is(err, database.ErrLinkExists):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.LinkExistsResponse)
			case errors.Is(err, database.ErrLinkNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(link)))
	}
}

// handleRemoveLink handles DELETE requests for a link.
func handleRemoveLink(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleRemoveLink"
	const successMsg = "The link was successfully deleted."

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := svc.RemoveLink(r.Context(), id); err != nil {
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
		render.JSON(w, r, response.SuccessResponse(successMsg))
	}
}

// handleFilterLinks handles GET requests filtering links by an
// allow-listed attribute.
func handleFilterLinks(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleFilterLinks"
	const successMsg = "The links were successfully retrieved."

	return func(w http.ResponseWriter, r *http.Request) {
		attribute := chi.URLParam(r, "attribute")
		data := chi.URLParam(r, "data")

		links, err := svc.FilterLinks(r.Context(), attribute, data)
		if err != nil {
			if errors.Is(err, database.ErrUnknownAttribute) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.UnknownAttributeResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponses(links)))
	}
}

// handleListLinksByDateRange handles GET requests for links registered
// between two dates, both inclusive.
func handleListLinksByDateRange(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleListLinksByDateRange"
	const successMsg = "The links were successfully retrieved."

	return func(w http.ResponseWriter, r *http.Request) {
		from, err := time.Parse(dateLayout, chi.URLParam(r, "initialDate"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.InvalidDateResponse)
			return
		}

		final, err := time.Parse(dateLayout, chi.URLParam(r, "finalDate"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.InvalidDateResponse)
			return
		}

		to := final.AddDate(0, 0, 1).Add(-time.Nanosecond)

		links, err := svc.ListLinksByDateRange(r.Context(), from, to)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponses(links)))
	}
}

// handleLinkQR handles GET requests for a PNG QR code pointing at the
// link's short URL.
func handleLinkQR(svc LinkService, shortBaseURL string) http.HandlerFunc {
	const op = "api.http.handleLinkQR"

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		link, err := svc.GetLink(r.Context(), id)
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

		png, err := qrcode.Encode(shortBaseURL+link.ShortLink, qrcode.Medium, 256)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		w.Write(png)
	}
}
