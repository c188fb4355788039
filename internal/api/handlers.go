package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	errorvalues "github.com/limbo/discipline/internal/error_values"
	"github.com/limbo/discipline/internal/service"
	"github.com/limbo/discipline/pkg/entity"
	"github.com/limbo/discipline/pkg/httputil"
)

type CheckInRequest struct {
	Action service.ActionType `json:"action"`
	Value  *float64           `json:"value,omitempty"`
}

type AnalyticsResponse struct {
	HabitID   string           `json:"habit_id"`
	Analytics entity.Analytics `json:"analytics"`
}

type InsightsResponse struct {
	HabitID  string           `json:"habit_id"`
	Insights []entity.Insight `json:"insights"`
}

type MutationResponse struct {
	HabitID   string           `json:"habit_id"`
	Date      string           `json:"date,omitempty"`
	Queued    bool             `json:"queued,omitempty"`
	Message   string           `json:"message,omitempty"`
	Analytics entity.Analytics `json:"analytics"`
}

type SyncResponse struct {
	Replayed int `json:"replayed"`
}

func (s *Server) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		logger.Error("get analytics error: invalid habit id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	a, err := s.analyticsService.GetAnalytics(ctx, id)
	if err != nil {
		s.writeReadError(w, logger.With(slog.String("habit_id", id.String())), "get analytics", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, AnalyticsResponse{HabitID: id.String(), Analytics: a})
}

func (s *Server) GetInsights(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		logger.Error("get insights error: invalid habit id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	insights, err := s.analyticsService.GetInsights(ctx, id)
	if err != nil {
		s.writeReadError(w, logger.With(slog.String("habit_id", id.String())), "get insights", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, InsightsResponse{HabitID: id.String(), Insights: insights})
}

// MutateCheckIn applies one check-in action. Without a date in the path the
// action targets today.
func (s *Server) MutateCheckIn(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		logger.Error("check-in error: invalid habit id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id in path value", nil)
		return
	}
	var req CheckInRequest
	err = httputil.DecodeJSONBody(r, &req)
	if err != nil {
		logger.Error("check-in error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	action := service.Action{
		Type:    req.Action,
		DateKey: entity.DateKey(chi.URLParam(r, "date")),
		Value:   req.Value,
	}
	logger = logger.With(
		slog.String("habit_id", id.String()),
		slog.String("action", string(action.Type)),
	)
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*15)
	defer cancel()
	err = s.analyticsService.Mutate(ctx, id, action)
	resp := MutationResponse{HabitID: id.String(), Date: action.DateKey.String()}
	status := http.StatusOK
	if err != nil {
		var mErr *errorvalues.MutationError
		if !errors.As(err, &mErr) || !mErr.Queued {
			s.writeMutationError(w, logger, err)
			return
		}
		logger.Warn("check-in queued until the store is reachable")
		resp.Queued = true
		resp.Message = mErr.UserMessage()
		status = http.StatusAccepted
	}
	a, err := s.analyticsService.GetAnalytics(ctx, id)
	if err != nil {
		logger.Error("check-in error: reading analytics after mutation", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "check-in saved but analytics are unavailable", nil)
		return
	}
	resp.Analytics = a
	httputil.WriteJSONResponse(w, status, resp)
	logger.Info("check-in applied", slog.Bool("queued", resp.Queued))
}

// Sync replays check-ins that were queued while the store was unreachable.
func (s *Server) Sync(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*30)
	defer cancel()
	n, err := s.analyticsService.Flush(ctx)
	if err != nil {
		if errorvalues.Classify(err) == errorvalues.KindAvailability {
			logger.Warn("sync error: store still unavailable", slog.Int("replayed", n))
			httputil.WriteErrorResponse(w, http.StatusServiceUnavailable, "store is unavailable, queued check-ins kept", nil)
			return
		}
		logger.Error("sync error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while syncing check-ins", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, SyncResponse{Replayed: n})
	logger.Info("outbox synced", slog.Int("replayed", n))
}

func (s *Server) writeReadError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch errorvalues.Classify(err) {
	case errorvalues.KindNotFound:
		logger.Error(op + " error: unexist habit")
		httputil.WriteErrorResponse(w, http.StatusNotFound, "habit doesn't exist", nil)
	case errorvalues.KindAuthorization:
		logger.Error(op + " error: permission denied")
		httputil.WriteErrorResponse(w, http.StatusForbidden, errorvalues.ErrPermissionDenied.Error(), nil)
	case errorvalues.KindAvailability:
		logger.Error(op+" error: store unavailable", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusServiceUnavailable, "store is unavailable", nil)
	default:
		logger.Error(op+" error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while reading habit", nil)
	}
}

func (s *Server) writeMutationError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var mErr *errorvalues.MutationError
	if !errors.As(err, &mErr) {
		mErr = &errorvalues.MutationError{Kind: errorvalues.Classify(err), Err: err}
	}
	status := http.StatusInternalServerError
	switch mErr.Kind {
	case errorvalues.KindValidation:
		status = http.StatusBadRequest
		if errors.Is(err, errorvalues.ErrDuplicateCheckIn) {
			status = http.StatusConflict
		}
	case errorvalues.KindAuthorization:
		status = http.StatusForbidden
	case errorvalues.KindAvailability:
		status = http.StatusServiceUnavailable
	case errorvalues.KindNotFound:
		status = http.StatusNotFound
	}
	logger.Error("check-in error",
		slog.String("kind", mErr.Kind.String()),
		slog.Bool("rolled_back", mErr.RolledBack),
		slog.String("error", err.Error()),
	)
	httputil.WriteErrorResponse(w, status, mErr.UserMessage(), nil)
}
