package referrals

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/veloramed/velora/internal/platform/httpx"
	"github.com/veloramed/velora/internal/shared"
)

// Handler serves the referral API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the referrals HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// Routes mounts the referral endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/referrals", h.list)
	r.Post("/referrals", h.create)
	r.Post("/referrals/{referralID}/status", h.transition)
	r.Post("/referrals/{referralID}/credit", h.credit)
	r.Delete("/referrals/{referralID}", h.remove)
}

// viewerFromRequest carries the authenticated identity the auth layer put
// on the request. Header-based here; session mechanics live outside this
// service.
func viewerFromRequest(r *http.Request) Viewer {
	return Viewer{
		AccountID: r.Header.Get("X-Viewer-Account"),
		Email:     r.Header.Get("X-Viewer-Email"),
		Phone:     r.Header.Get("X-Viewer-Phone"),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	bucket := Bucket(r.URL.Query().Get("bucket"))
	switch bucket {
	case "":
		bucket = BucketAll
	case BucketActive, BucketHistoric, BucketAll:
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "bucket must be active, historic, or all")
		return
	}
	views, err := h.service.List(r.Context(), bucket, viewerFromRequest(r))
	if err != nil {
		h.logger.Error("list referrals", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"referrals": views})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateReferralRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	status := StatusPending
	if req.ContactForm {
		status = StatusContactForm
	}
	rec, err := h.service.Create(r.Context(), ReferralRecord{
		ReferrerID:   req.ReferrerID,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Notes:        req.Notes,
		Status:       status,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	target, err := ParseStatus(req.Target)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rec, err := h.service.Transition(r.Context(), chi.URLParam(r, "referralID"), target)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) credit(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Credit(r.Context(), chi.URLParam(r, "referralID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), chi.URLParam(r, "referralID")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such referral")
	case errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, shared.ErrPermitRequired):
		httpx.Problem(w, http.StatusConflict, "Permit Required", "a reseller permit upload or exemption is required before verification")
	case errors.Is(err, shared.ErrCreditAlreadyIssued):
		httpx.Problem(w, http.StatusConflict, "Credit Already Issued", "this referral has already been credited")
	case errors.Is(err, shared.ErrCreditNotEligible):
		httpx.Problem(w, http.StatusConflict, "Not Eligible", "this referral does not qualify for credit yet")
	default:
		h.logger.Error("referral request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
