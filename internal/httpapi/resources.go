package httpapi

import (
	"net/http"

	"github.com/p-n-ai/pai-quiz/internal/validate"
)

const msgResourceNotFound = "Resource not found"

func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Resources())
}

func (s *Server) getResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "resourceId")
	if !ok {
		return
	}
	res, found := s.store.Resource(id)
	if !found {
		writeMessage(w, http.StatusNotFound, msgResourceNotFound)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) createResource(w http.ResponseWriter, r *http.Request) {
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	in, err := validate.Resource(raw)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.store.CreateResource(in))
}

func (s *Server) updateResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "resourceId")
	if !ok {
		return
	}
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	patch, err := validate.ResourcePatch(raw)
	if err != nil {
		fail(w, r, err)
		return
	}
	res, found := s.store.UpdateResource(id, patch)
	if !found {
		writeMessage(w, http.StatusNotFound, msgResourceNotFound)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
