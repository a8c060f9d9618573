package handler

import (
	"bufio"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"benefit-estimator/internal/model"
)

// handleEvents streams the session snapshot as server-sent events: the current
// snapshot first, then one event per persisted change.
func (s *Server) handleEvents(ctx *fasthttp.RequestCtx, sid string) {
	updates, cancel := s.states.Subscribe(sid)
	initial, err := s.states.Snapshot(ctx, sid)
	if err != nil {
		cancel()
		s.storeError(ctx, err)
		return
	}

	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.SetStatusCode(fasthttp.StatusOK)

	logger := s.logger.With(zap.String("session", sid))
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		logger.Debug("event stream opened")
		defer logger.Debug("event stream closed")

		if writeEvent(w, initial) != nil {
			return
		}
		ticker := time.NewTicker(s.keepAlive)
		defer ticker.Stop()
		for {
			select {
			case state, ok := <-updates:
				if !ok {
					return
				}
				if writeEvent(w, state) != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if w.Flush() != nil {
					return
				}
			case <-s.done:
				return
			}
		}
	})
}

func writeEvent(w *bufio.Writer, state model.UserState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	w.WriteString("event: state\ndata: ")
	w.Write(data)
	w.WriteString("\n\n")
	return w.Flush()
}
