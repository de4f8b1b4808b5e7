package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/postboy/postboy/pkg/collections"
	"github.com/postboy/postboy/pkg/core"
	"github.com/postboy/postboy/pkg/storage"
)

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.store.ListCollections(r.Context())
	if err != nil {
		s.storeError(w, "list_collections", err)
		return
	}
	out := make([]collections.CollectionDTO, len(cols))
	for i, c := range cols {
		out[i] = collections.CollectionDTO{ID: c.ID, Name: c.Name}
	}
	s.storeOK(w, "list_collections", http.StatusOK, out)
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var in collections.CollectionDTO
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.storeFail(w, "create_collection", http.StatusBadRequest, "invalid JSON body")
		return
	}
	col, err := s.store.CreateCollection(r.Context(), in.Name)
	if err != nil {
		s.storeError(w, "create_collection", err)
		return
	}
	s.storeOK(w, "create_collection", http.StatusCreated, collections.CollectionDTO{ID: col.ID, Name: col.Name})
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	id, ok := s.collectionID(w, r, "list_requests")
	if !ok {
		return
	}
	reqs, err := s.store.ListRequests(r.Context(), id)
	if err != nil {
		s.storeError(w, "list_requests", err)
		return
	}
	out := make([]collections.RequestDTO, len(reqs))
	for i, req := range reqs {
		out[i] = collections.ToDTO(req, true)
	}
	s.storeOK(w, "list_requests", http.StatusOK, out)
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := s.collectionID(w, r, "create_request")
	if !ok {
		return
	}
	in, ok := s.decodeRequest(w, r, "create_request")
	if !ok {
		return
	}
	created, err := s.store.CreateRequest(r.Context(), id, in)
	if err != nil {
		s.storeError(w, "create_request", err)
		return
	}
	s.storeOK(w, "create_request", http.StatusCreated, collections.ToDTO(created, true))
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.store.GetRequest(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, "get_request", err)
		return
	}
	s.storeOK(w, "get_request", http.StatusOK, collections.ToDTO(req, true))
}

func (s *Server) handleUpdateRequest(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeRequest(w, r, "update_request")
	if !ok {
		return
	}
	in.ID = mux.Vars(r)["id"]
	updated, err := s.store.UpdateRequest(r.Context(), in)
	if err != nil {
		s.storeError(w, "update_request", err)
		return
	}
	s.storeOK(w, "update_request", http.StatusOK, collections.ToDTO(updated, true))
}

func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRequest(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.storeError(w, "delete_request", err)
		return
	}
	storeOperationsTotal.WithLabelValues("delete_request", strconv.Itoa(http.StatusNoContent)).Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) collectionID(w http.ResponseWriter, r *http.Request, op string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.storeFail(w, op, http.StatusBadRequest, "invalid collection id")
		return 0, false
	}
	return id, true
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, op string) (core.SavedRequest, bool) {
	var dto collections.RequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		s.storeFail(w, op, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return core.SavedRequest{}, false
	}
	if dto.BodyType != "" && !dto.BodyType.Valid() {
		s.storeFail(w, op, http.StatusBadRequest, "unknown bodyType "+string(dto.BodyType))
		return core.SavedRequest{}, false
	}
	return dto.ToSaved(), true
}

func (s *Server) storeOK(w http.ResponseWriter, op string, status int, data any) {
	storeOperationsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
	WriteJSON(w, status, data)
}

func (s *Server) storeFail(w http.ResponseWriter, op string, status int, message string) {
	storeOperationsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
	WriteError(w, status, message)
}

func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.storeFail(w, op, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrNameRequired):
		s.storeFail(w, op, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Str("op", op).Msg("store operation failed")
		s.storeFail(w, op, http.StatusInternalServerError, "internal error")
	}
}
