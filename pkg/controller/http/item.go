package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/itemdeck/pkg/domain/model"
	"github.com/secmon-lab/itemdeck/pkg/usecase"
	"github.com/secmon-lab/itemdeck/pkg/utils/errutil"
)

type itemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type searchRequest struct {
	Term string `json:"term"`
}

type itemResponse struct {
	Item  *model.Item      `json:"item"`
	State usecase.Snapshot `json:"state"`
}

var errBadRequest = goerr.New("bad request")

// statusOf maps store errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrBusy), errors.Is(err, usecase.ErrNotEditing):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	msg := usecase.UserMessage(err)
	if errors.Is(err, errBadRequest) {
		msg = "Invalid request"
	}
	errutil.HandleHTTP(r.Context(), w, err, statusOf(err), msg)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(errBadRequest, "invalid request body", goerr.V("cause", err.Error()))
	}
	return nil
}

func itemIDParam(r *http.Request) (model.ItemID, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, goerr.Wrap(errBadRequest, "invalid item id", goerr.V(model.ItemIDKey, raw))
	}
	return model.ItemID(id), nil
}

// intentContext keeps request values such as the logger but not cancellation.
// Store outcomes are shared by every client, not only the requester.
func intentContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (s *Server) stateHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.uc.Items.Snapshot())
}

func (s *Server) loadHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Items.Load(intentContext(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.uc.Items.Snapshot())
}

func (s *Server) addHandler(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.uc.Items.Add(intentContext(r), req.Title, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, itemResponse{
		Item:  created,
		State: s.uc.Items.Snapshot(),
	})
}

func (s *Server) updateHandler(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.uc.Items.Update(intentContext(r), req.Title, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, itemResponse{
		Item:  updated,
		State: s.uc.Items.Snapshot(),
	})
}

func (s *Server) removeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := itemIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.uc.Items.Remove(intentContext(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.uc.Items.Snapshot())
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s.uc.Items.SetSearchTerm(req.Term)
	writeJSON(w, r, http.StatusOK, s.uc.Items.Snapshot())
}

// searchInputHandler accepts keystroke-rate input. The term is applied after
// the debounce window, so the response only acknowledges receipt.
func (s *Server) searchInputHandler(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s.uc.Search.Input(req.Term)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) beginEditHandler(w http.ResponseWriter, r *http.Request) {
	id, err := itemIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.uc.Items.BeginEdit(id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.uc.Items.Snapshot())
}

func (s *Server) beginAddHandler(w http.ResponseWriter, r *http.Request) {
	s.uc.Items.BeginAdd()
	writeJSON(w, r, http.StatusOK, s.uc.Items.Snapshot())
}

func (s *Server) cancelEditHandler(w http.ResponseWriter, r *http.Request) {
	s.uc.Items.CancelEdit()
	writeJSON(w, r, http.StatusOK, s.uc.Items.Snapshot())
}

func (s *Server) dismissErrorHandler(w http.ResponseWriter, r *http.Request) {
	s.uc.Items.DismissError()
	writeJSON(w, r, http.StatusOK, s.uc.Items.Snapshot())
}
