package orders

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/veloramed/velora/internal/platform/httpx"
	"github.com/veloramed/velora/internal/shared"
)

// Handler serves the merged order API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	repo     Repository
	validate *validator.Validate
}

// NewHandler constructs the orders HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, repo Repository) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		repo:     repo,
		validate: validator.New(),
	}
}

// Routes mounts the order endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/orders", h.list)
	r.Post("/orders", h.create)
	r.Get("/orders/{orderID}", h.get)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	opts := MergeOptions{IncludeCanceled: r.URL.Query().Get("includeCanceled") == "true"}
	force := r.URL.Query().Get("refresh") == "true"

	snap, err := h.service.MergedOrders(r.Context(), opts, force)
	if err != nil && snap == nil {
		h.logger.Error("list merged orders", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Unavailable", "order sources are unreachable")
		return
	}
	// A snapshot alongside an error is last-known-good data; serve it
	// with the warning rather than blanking the view.
	httpx.JSON(w, http.StatusOK, ListResponse{
		Orders:      viewsOf(snap.Orders),
		RefreshedAt: snap.RefreshedAt,
		Warning:     snap.Warning,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderID")
	snap, err := h.service.MergedOrders(r.Context(), MergeOptions{IncludeCanceled: true}, false)
	if err != nil && snap == nil {
		httpx.Problem(w, http.StatusBadGateway, "Upstream Unavailable", "order sources are unreachable")
		return
	}
	for _, o := range snap.Orders {
		if o.ID == id || o.LocalID == id || o.ExternalID == id {
			httpx.JSON(w, http.StatusOK, viewOf(o))
			return
		}
	}
	httpx.Problem(w, http.StatusNotFound, "Not Found", "no such order")
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	id, err := h.repo.CreateRaw(r.Context(), req.Payload)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "order already exists")
			return
		}
		h.logger.Error("create local order", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"id": id})
}
