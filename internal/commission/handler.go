package commission

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/veloramed/velora/internal/orders"
	"github.com/veloramed/velora/internal/platform/httpx"
)

// OrderSource supplies the merged canonical orders the ledger walks.
type OrderSource interface {
	MergedOrders(ctx context.Context, opts orders.MergeOptions, forceRefresh bool) (*orders.Snapshot, error)
}

// Handler serves commission ledger queries and CSV export.
type Handler struct {
	logger *slog.Logger
	source OrderSource
	repo   Repository
	cfg    Config
}

// NewHandler constructs the commission HTTP handler.
func NewHandler(logger *slog.Logger, source OrderSource, repo Repository, cfg Config) *Handler {
	return &Handler{logger: logger, source: source, repo: repo, cfg: cfg}
}

// Routes mounts the commission endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/commissions", h.ledger)
	r.Get("/commissions/export", h.export)
}

// parsePeriod reads from/to query params. Defaults to the current
// calendar month; the end bound is exclusive.
func parsePeriod(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q", raw)
		}
		start = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q", raw)
		}
		end = parsed
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("period end must follow start")
	}
	return start, end, nil
}

func (h *Handler) compute(r *http.Request) ([]LedgerRow, time.Time, time.Time, string, error) {
	start, end, err := parsePeriod(r, time.Now().UTC())
	if err != nil {
		return nil, start, end, "", err
	}
	snap, err := h.source.MergedOrders(r.Context(), orders.MergeOptions{}, false)
	if err != nil && snap == nil {
		return nil, start, end, "", fmt.Errorf("order sources unreachable: %w", err)
	}
	recipients, err := h.repo.ListRecipients(r.Context())
	if err != nil {
		return nil, start, end, "", err
	}
	return Compute(snap.Orders, recipients, start, end, h.cfg), start, end, snap.Warning, nil
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	rows, start, end, warning, err := h.compute(r)
	if err != nil {
		h.logger.Error("commission ledger", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Ledger Unavailable", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"rows":    rows,
		"from":    start.Format("2006-01-02"),
		"to":      end.Format("2006-01-02"),
		"warning": warning,
	})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	rows, start, end, _, err := h.compute(r)
	if err != nil {
		h.logger.Error("commission export", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Export Unavailable", err.Error())
		return
	}
	filename := fmt.Sprintf("commissions_%s_%s.csv", start.Format("20060102"), end.Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := WriteLedgerCSV(w, rows); err != nil {
		h.logger.Error("write commission csv", slog.Any("error", err))
	}
}
