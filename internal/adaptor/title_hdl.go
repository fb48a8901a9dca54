package adaptor

import (
	"net/http"
	"strconv"

	"yamdb-api/internal/dto/request"
	"yamdb-api/internal/usecase"
	"yamdb-api/pkg/utils"

	"go.uber.org/zap"
)

type TitleHandler struct {
	service usecase.TitleService
	log     *zap.Logger
}

func NewTitleHandler(service usecase.TitleService, log *zap.Logger) *TitleHandler {
	return &TitleHandler{
		service: service,
		log:     log.With(zap.String("handler", "title")),
	}
}

// GetTitles handles GET /api/v1/titles (public)
// Filters: name (substring), year, genre (slug), category (slug).
func (h *TitleHandler) GetTitles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := request.TitleListRequest{
		PaginatedRequest: pageFromQuery(r),
		Name:             query.Get("name"),
		Genre:            query.Get("genre"),
		Category:         query.Get("category"),
	}

	if raw := query.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			utils.ResponseBadRequest(w, "Validation failed", map[string]string{"year": "Enter a whole number"})
			return
		}
		req.Year = &year
	}

	titles, err := h.service.GetAllTitles(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.log, err, "get titles")
		return
	}

	utils.ResponseSuccess(w, "success", titles)
}

// GetTitle handles GET /api/v1/titles/{title_id} (public)
func (h *TitleHandler) GetTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "title_id")
	if !ok {
		return
	}

	title, err := h.service.GetTitle(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.log, err, "get title")
		return
	}

	utils.ResponseSuccess(w, "success", title)
}

// CreateTitle handles POST /api/v1/titles (admin only)
func (h *TitleHandler) CreateTitle(w http.ResponseWriter, r *http.Request) {
	var req request.TitleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	title, err := h.service.CreateTitle(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.log, err, "create title")
		return
	}

	utils.ResponseCreated(w, "Title created", title)
}

// UpdateTitle handles PATCH /api/v1/titles/{title_id} (admin only)
func (h *TitleHandler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "title_id")
	if !ok {
		return
	}

	var req request.TitleUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	title, err := h.service.UpdateTitle(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.log, err, "update title")
		return
	}

	utils.ResponseSuccess(w, "Title updated", title)
}

// DeleteTitle handles DELETE /api/v1/titles/{title_id} (admin only)
func (h *TitleHandler) DeleteTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "title_id")
	if !ok {
		return
	}

	if err := h.service.DeleteTitle(r.Context(), id); err != nil {
		respondServiceError(w, h.log, err, "delete title")
		return
	}

	utils.ResponseSuccess(w, "Title deleted", nil)
}
