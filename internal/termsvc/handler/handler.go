// Package handler serves the term orderings over HTTP so that collaborators
// outside the process can evaluate them with the exact semantics of
// package term.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/internal/term"
	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/metrics"
)

const maxBodyBytes = 64 << 10

// Order names one of the three term orderings.
type Order string

const (
	OrderLexicographic Order = "lexicographic"
	OrderReverseWeight Order = "reverse_weight"
	OrderPrefix        Order = "prefix"
)

// Tracker is satisfied by *analytics.Collector.
type Tracker interface {
	Track(event analytics.CompareEvent)
}

// CompareRequest is the body of POST /api/v1/terms/compare. R is required
// for the prefix order only.
type CompareRequest struct {
	Left  *term.Term `json:"left"`
	Right *term.Term `json:"right"`
	Order Order      `json:"order"`
	R     *int       `json:"r,omitempty"`
}

// CompareResponse carries the raw comparison result and its sign.
type CompareResponse struct {
	Order  Order `json:"order"`
	Result int   `json:"result"`
	Sign   int   `json:"sign"`
}

// PrefixResponse is the body returned by GET /api/v1/terms/prefix.
type PrefixResponse struct {
	Query  string `json:"query"`
	R      int    `json:"r"`
	Prefix string `json:"prefix"`
}

// Handler serves the term API.
type Handler struct {
	tracker Tracker
	metrics *metrics.Metrics
	limits  config.TermsConfig
	logger  *slog.Logger
}

// New creates a Handler. tracker and m may be nil.
func New(tracker Tracker, m *metrics.Metrics, limits config.TermsConfig) *Handler {
	return &Handler{
		tracker: tracker,
		metrics: m,
		limits:  limits,
		logger:  slog.Default().With("component", "term-handler"),
	}
}

// Register mounts the term routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/terms/compare", h.Compare)
	mux.HandleFunc("GET /api/v1/terms/prefix", h.Prefix)
}

// Compare evaluates one ordering between two terms.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := logger.FromContext(r.Context())

	var req CompareRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	err := dec.Decode(&req)
	if err == nil {
		if extra := dec.Decode(&struct{}{}); extra != io.EOF {
			err = errors.New("trailing data after request body")
			var maxBytesErr *http.MaxBytesError
			if errors.As(extra, &maxBytesErr) {
				err = extra
			}
		}
	}
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return
		}
		if !apperrors.IsArgumentError(err) {
			err = fmt.Errorf("%w: decoding request: %v", apperrors.ErrInvalidArgument, err)
		}
		h.writeError(w, err)
		return
	}

	result, err := h.evaluate(req)
	event := analytics.CompareEvent{
		Type:      analytics.EventCompare,
		Order:     string(req.Order),
		R:         req.R,
		RequestID: logger.RequestID(r.Context()),
	}
	if req.Left != nil {
		event.LeftLength = utf8.RuneCountInString(req.Left.Query())
	}
	if req.Right != nil {
		event.RightLength = utf8.RuneCountInString(req.Right.Query())
	}
	if err != nil {
		event.Error = err.Error()
		h.observe(req.Order, "error", event, start)
		log.Debug("term comparison rejected", "order", req.Order, "error", err)
		h.writeError(w, err)
		return
	}

	event.Sign = sign(result)
	h.observe(req.Order, outcome(result), event, start)
	log.Debug("terms compared", "order", req.Order, "result", result)
	h.writeJSON(w, http.StatusOK, CompareResponse{
		Order:  req.Order,
		Result: result,
		Sign:   sign(result),
	})
}

func (h *Handler) evaluate(req CompareRequest) (int, error) {
	if req.Left == nil {
		return 0, fmt.Errorf("%w: left term is required", apperrors.ErrInvalidArgument)
	}
	for _, t := range []*term.Term{req.Left, req.Right} {
		if t != nil && utf8.RuneCountInString(t.Query()) > h.limits.MaxQueryLength {
			return 0, fmt.Errorf("%w: query longer than %d characters", apperrors.ErrInvalidArgument, h.limits.MaxQueryLength)
		}
	}

	switch req.Order {
	case OrderLexicographic:
		return req.Left.Compare(req.Right)
	case OrderReverseWeight:
		return req.Left.CompareByReverseWeight(req.Right)
	case OrderPrefix:
		if req.R == nil {
			return 0, fmt.Errorf("%w: r is required for prefix order", apperrors.ErrInvalidArgument)
		}
		if err := h.checkPrefixLength(*req.R); err != nil {
			return 0, err
		}
		return req.Left.CompareByPrefix(req.Right, *req.R)
	default:
		return 0, fmt.Errorf("%w: unknown order %q", apperrors.ErrInvalidArgument, req.Order)
	}
}

// Prefix returns the first r characters of the query given as a parameter.
// An absent query parameter is rejected, an empty one is not.
func (h *Handler) Prefix(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params := r.URL.Query()
	event := analytics.CompareEvent{
		Type:      analytics.EventPrefix,
		RequestID: logger.RequestID(r.Context()),
	}
	fail := func(err error) {
		event.Error = err.Error()
		h.observe("", "error", event, start)
		logger.FromContext(r.Context()).Debug("prefix lookup rejected", "error", err)
		h.writeError(w, err)
	}

	var query *string
	if params.Has("query") {
		q := params.Get("query")
		query = &q
	}
	var weight int64
	if v := params.Get("weight"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			fail(fmt.Errorf("%w: weight must be an integer", apperrors.ErrInvalidArgument))
			return
		}
		weight = parsed
	}
	rLen, err := strconv.Atoi(params.Get("r"))
	if err != nil {
		fail(fmt.Errorf("%w: r must be an integer", apperrors.ErrInvalidArgument))
		return
	}
	event.R = &rLen
	if err := h.checkPrefixLength(rLen); err != nil {
		fail(err)
		return
	}

	t, err := term.NewFromPtr(query, weight)
	if err != nil {
		fail(err)
		return
	}
	event.LeftLength = utf8.RuneCountInString(t.Query())
	if event.LeftLength > h.limits.MaxQueryLength {
		fail(fmt.Errorf("%w: query longer than %d characters", apperrors.ErrInvalidArgument, h.limits.MaxQueryLength))
		return
	}
	prefix, err := t.QueryPrefix(rLen)
	if err != nil {
		fail(err)
		return
	}

	h.observe("", "ok", event, start)
	h.writeJSON(w, http.StatusOK, PrefixResponse{Query: t.Query(), R: rLen, Prefix: prefix})
}

// checkPrefixLength enforces the configured upper bound only; negative
// values are left to package term so its error is reported verbatim.
func (h *Handler) checkPrefixLength(r int) error {
	if h.limits.MaxPrefixLength > 0 && r > h.limits.MaxPrefixLength {
		return fmt.Errorf("%w: r larger than %d", apperrors.ErrInvalidArgument, h.limits.MaxPrefixLength)
	}
	return nil
}

func (h *Handler) observe(order Order, result string, event analytics.CompareEvent, start time.Time) {
	event.LatencyUs = time.Since(start).Microseconds()
	event.Timestamp = time.Now().UTC()
	if h.metrics != nil {
		if event.Type == analytics.EventPrefix {
			h.metrics.PrefixLookupsTotal.WithLabelValues(result).Inc()
			if event.R != nil && event.Error == "" {
				h.metrics.PrefixLength.Observe(float64(*event.R))
			}
		} else {
			h.metrics.ComparisonsTotal.WithLabelValues(metricOrder(order), result).Inc()
			if order == OrderPrefix && event.R != nil {
				h.metrics.PrefixLength.Observe(float64(*event.R))
			}
		}
	}
	if h.tracker != nil {
		h.tracker.Track(event)
	}
}

// metricOrder keeps the order label bounded for unknown client input.
func metricOrder(o Order) string {
	switch o {
	case OrderLexicographic, OrderReverseWeight, OrderPrefix:
		return string(o)
	default:
		return "unknown"
	}
}

func outcome(n int) string {
	switch sign(n) {
	case -1:
		return "less"
	case 1:
		return "greater"
	default:
		return "equal"
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("term request failed", "error", err)
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
