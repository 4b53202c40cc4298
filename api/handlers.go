package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/spine-examples/todo-list/domain"
	"github.com/spine-examples/todo-list/storage"
	"github.com/spine-examples/todo-list/views"
)

const (
	rejectionCodeNotEnqueued = "COMMAND_NOT_ENQUEUED"
	maxCommandsPerRequest    = 100
)

const (
	routeCommands = "/api/commands"
	routeOutcome  = "/api/commands/:key"
	routePersonal = "/api/views/personal"
	routeDrafts   = "/api/views/drafts"
	routeLabel    = "/api/views/labels/:id"
	routeStream   = "/api/stream"
)

const headerETag = "ETag"

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Auth     Authenticator
	Commands storage.Queue
	Deduper  Deduper
	Outcomes OutcomeStore
	Views    ViewReader
	Updates  UpdateSubscriber
	Sender   SenderConfig
	Logger   *log.Logger
}

type handlers struct {
	Deps
	sender *commandSender
}

// Register wires up all API routes on the provided Echo instance. The returned
// function stops the background command sender.
func Register(e *echo.Echo, deps Deps) func() {
	if deps.Logger == nil {
		deps.Logger = log.StandardLogger()
	}
	h := &handlers{
		Deps:   deps,
		sender: newCommandSender(deps.Commands, deps.Deduper, deps.Outcomes, deps.Logger, deps.Sender),
	}

	e.POST(routeCommands, h.postCommands)
	e.GET(routeOutcome, h.getOutcome)
	e.GET(routePersonal, h.getView(routePersonal, func(echo.Context) views.Key { return views.PersonalKey }))
	e.GET(routeDrafts, h.getView(routeDrafts, func(echo.Context) views.Key { return views.DraftsKey }))
	e.GET(routeLabel, h.getView(routeLabel, func(c echo.Context) views.Key {
		return views.LabelGroupKey(domain.LabelID(c.Param("id")))
	}))
	if deps.Updates != nil {
		e.GET(routeStream, h.stream)
	}
	e.GET("/healthz", healthz)

	return h.sender.Close
}

func healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// withMetrics opens the request span and returns a context carrying it.
func (h *handlers) withMetrics(c echo.Context, route string) (*requestMetrics, context.Context) {
	metrics, spanCtx := newRequestMetrics(c.Request().Context(), h.Logger, route)
	c.SetRequest(c.Request().WithContext(spanCtx))
	return metrics, spanCtx
}

func (h *handlers) authenticate(c echo.Context, metrics *requestMetrics) (string, error) {
	authStart := time.Now()
	userID, err := h.Auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	metrics.ObserveAuth(time.Since(authStart))
	if err != nil {
		metrics.SetErrorStage("auth")
	}
	return userID, err
}

func (h *handlers) postCommands(c echo.Context) (err error) {
	metrics, ctx := h.withMetrics(c, routeCommands)
	defer func() {
		metrics.Log(c.Response().Status, err)
	}()

	userID, authErr := h.authenticate(c, metrics)
	if authErr != nil {
		return c.String(http.StatusUnauthorized, authErr.Error())
	}

	lr := io.LimitReader(c.Request().Body, postCommandMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()

	cmds := make([]domain.CommandMessage, 0, 4)
	if decErr := dec.Decode(&cmds); decErr != nil {
		metrics.SetErrorStage("decode")
		return c.JSON(http.StatusBadRequest, postCommandResponse{Error: "invalid body"})
	}
	if len(cmds) == 0 || len(cmds) > maxCommandsPerRequest {
		metrics.SetErrorStage("validate")
		return c.JSON(http.StatusBadRequest, postCommandResponse{Error: "expected between 1 and 100 commands"})
	}
	for i := range cmds {
		if _, decErr := domain.DecodeCommand(cmds[i]); decErr != nil {
			metrics.SetErrorStage("validate")
			return c.JSON(http.StatusBadRequest, postCommandResponse{Error: decErr.Error()})
		}
	}
	metrics.SetCommands(len(cmds))

	keys := finalizeCommands(cmds)

	fresh, duplicates, dedupeErr := h.dedupe(ctx, userID, cmds)
	if dedupeErr != nil {
		metrics.SetErrorStage("dedupe")
		h.Logger.WithError(dedupeErr).Error("dedupe failed")
		return c.JSON(http.StatusInternalServerError, postCommandResponse{Error: "failed to enqueue commands"})
	}
	metrics.SetDuplicates(len(duplicates))
	if len(fresh) == 0 {
		return c.JSON(http.StatusAccepted, postCommandResponse{IdempotencyKeys: keys, Duplicates: duplicates})
	}

	h.recordPending(ctx, userID, fresh)

	job := enqueueJob{userID: userID, cmds: fresh}
	if !h.sender.trySend(job) {
		h.Logger.Warn("enqueue buffer saturated; processing inline")
		if sendErr := h.sender.sendInline(ctx, job); sendErr != nil {
			metrics.SetErrorStage("enqueue")
			h.Logger.Errorf("enqueue inline failed: %v", sendErr)
			return c.JSON(http.StatusInternalServerError, postCommandResponse{Error: "failed to enqueue commands"})
		}
	}

	return c.JSON(http.StatusAccepted, postCommandResponse{IdempotencyKeys: keys, Duplicates: duplicates})
}

// finalizeCommands assigns missing idempotency keys and submission
// timestamps, returning the keys in request order.
func finalizeCommands(cmds []domain.CommandMessage) []string {
	keys := make([]string, len(cmds))
	for i := range cmds {
		if cmds[i].IdempotencyKey == "" {
			cmds[i].IdempotencyKey = uuid.NewString()
		}
		cmds[i].ID = cmds[i].IdempotencyKey
		cmds[i].Timestamp = nextTimestamp()
		keys[i] = cmds[i].IdempotencyKey
	}
	return keys
}

// dedupe splits cmds into those seen for the first time and the keys of
// resubmissions. Keys added before a failure are released again.
func (h *handlers) dedupe(ctx context.Context, userID string, cmds []domain.CommandMessage) ([]domain.CommandMessage, []string, error) {
	if h.Deduper == nil {
		return cmds, nil, nil
	}
	fresh := make([]domain.CommandMessage, 0, len(cmds))
	var duplicates []string
	seen := make(map[string]struct{}, len(cmds))
	for _, cmd := range cmds {
		if _, ok := seen[cmd.IdempotencyKey]; ok {
			duplicates = append(duplicates, cmd.IdempotencyKey)
			continue
		}
		seen[cmd.IdempotencyKey] = struct{}{}
		added, err := h.Deduper.Add(ctx, userID, cmd.IdempotencyKey)
		if err != nil {
			for _, f := range fresh {
				if rerr := h.Deduper.Remove(ctx, userID, f.IdempotencyKey); rerr != nil {
					h.Logger.Errorf("dedupe rollback failed, err : %v, key: %s, user: %s", rerr, f.IdempotencyKey, userID)
				}
			}
			return nil, nil, err
		}
		if !added {
			duplicates = append(duplicates, cmd.IdempotencyKey)
			continue
		}
		fresh = append(fresh, cmd)
	}
	return fresh, duplicates, nil
}

func (h *handlers) recordPending(ctx context.Context, userID string, cmds []domain.CommandMessage) {
	if h.Outcomes == nil {
		return
	}
	for _, cmd := range cmds {
		out := domain.Outcome{Status: domain.OutcomePending, CommandType: cmd.Type, Timestamp: cmd.Timestamp}
		if err := h.Outcomes.Record(ctx, userID, cmd.IdempotencyKey, out); err != nil {
			h.Logger.Warnf("record outcome failed, err: %v, key: %s", err, cmd.IdempotencyKey)
		}
	}
}

func (h *handlers) getOutcome(c echo.Context) (err error) {
	metrics, ctx := h.withMetrics(c, routeOutcome)
	defer func() {
		metrics.Log(c.Response().Status, err)
	}()

	userID, authErr := h.authenticate(c, metrics)
	if authErr != nil {
		return c.String(http.StatusUnauthorized, authErr.Error())
	}
	if h.Outcomes == nil {
		return c.NoContent(http.StatusNotFound)
	}

	key := c.Param("key")
	fetchStart := time.Now()
	out, found, getErr := h.Outcomes.Get(ctx, userID, key)
	metrics.ObserveFetch(time.Since(fetchStart))
	if getErr != nil {
		metrics.SetErrorStage("storage")
		h.Logger.WithError(getErr).WithField("key", key).Error("load outcome failed")
		return c.String(http.StatusInternalServerError, "failed to load outcome")
	}
	if !found {
		return c.NoContent(http.StatusNotFound)
	}
	return c.JSON(http.StatusOK, outcomeResponse{IdempotencyKey: key, Outcome: out})
}

func (h *handlers) getView(route string, keyOf func(echo.Context) views.Key) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := h.withMetrics(c, route)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		if _, authErr := h.authenticate(c, metrics); authErr != nil {
			return c.String(http.StatusUnauthorized, authErr.Error())
		}

		key := keyOf(c)
		if key.ID == "" {
			metrics.SetErrorStage("validate")
			return c.String(http.StatusBadRequest, "missing view id")
		}

		fetchStart := time.Now()
		rec, found, getErr := h.Views.GetView(ctx, key)
		metrics.ObserveFetch(time.Since(fetchStart))
		if getErr != nil {
			metrics.SetErrorStage("storage")
			h.Logger.WithError(getErr).WithField("view", key.String()).Error("load view failed")
			return c.String(http.StatusInternalServerError, "failed to load view")
		}

		data := rec.Data
		if !found || len(data) == 0 {
			data, err = emptyView(key)
			if err != nil {
				metrics.SetErrorStage("encode_response")
				return err
			}
		}
		if found && rec.ETag != "" {
			c.Response().Header().Set(headerETag, rec.ETag)
		}
		return c.JSONBlob(http.StatusOK, data)
	}
}

func emptyView(key views.Key) ([]byte, error) {
	v, err := views.Empty(key)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownType) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "unknown view")
		}
		return nil, err
	}
	return views.Encode(v)
}
