package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/Harshitk-cp/proofstream/internal/service"
	"github.com/go-chi/chi/v5"
)

type ProofHandler struct {
	svc *service.ProofService
}

func NewProofHandler(svc *service.ProofService) *ProofHandler {
	return &ProofHandler{svc: svc}
}

type appendRawRequest struct {
	Content string `json:"content" validate:"required"`
}

type appendStructuredRequest struct {
	BaseMajor  int               `json:"base_major" validate:"gte=1"`
	Sublemmas  []domain.Sublemma `json:"sublemmas" validate:"required,dive"`
	UserEdited bool              `json:"user_edited"`
	Derived    bool              `json:"derived"`
}

type reconcileRequest struct {
	BaseMajor int               `json:"base_major"`
	Current   []domain.Sublemma `json:"current" validate:"dive"`
	Revised   []domain.Sublemma `json:"revised" validate:"required,min=1,dive"`
	Accept    bool              `json:"accept"`
	Force     bool              `json:"force"`
}

type conflictResponse struct {
	Error string `json:"error"`
	*service.ReconcileResult
}

func (h *ProofHandler) List(w http.ResponseWriter, r *http.Request) {
	versions, err := h.svc.History(r.Context(), chi.URLParam(r, "proofID"))
	if err != nil {
		if errors.Is(err, service.ErrProofNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list versions")
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

func (h *ProofHandler) AppendRaw(w http.ResponseWriter, r *http.Request) {
	var req appendRawRequest
	if !decodeBody(w, r, &req) {
		return
	}

	v, err := h.svc.AppendRaw(r.Context(), chi.URLParam(r, "proofID"), req.Content)
	if err != nil {
		h.writeServiceError(w, err, "failed to append raw version")
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *ProofHandler) AppendStructured(w http.ResponseWriter, r *http.Request) {
	var req appendStructuredRequest
	if !decodeBody(w, r, &req) {
		return
	}

	prov := domain.Provenance{UserEdited: req.UserEdited, Derived: req.Derived}
	v, err := h.svc.AppendStructured(r.Context(), chi.URLParam(r, "proofID"), req.BaseMajor, req.Sublemmas, prov)
	if err != nil {
		h.writeServiceError(w, err, "failed to append structured version")
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *ProofHandler) UserEdited(w http.ResponseWriter, r *http.Request) {
	major, err := strconv.Atoi(r.URL.Query().Get("major"))
	if err != nil || major < 1 {
		writeError(w, http.StatusBadRequest, "major must be a positive integer")
		return
	}

	edited, err := h.svc.HasUserEditedStructured(r.Context(), chi.URLParam(r, "proofID"), major)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read versions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"user_edited": edited})
}

func (h *ProofHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.svc.Reconcile(r.Context(), service.ReconcileInput{
		ProofID:   chi.URLParam(r, "proofID"),
		BaseMajor: req.BaseMajor,
		Current:   req.Current,
		Revised:   req.Revised,
		Accept:    req.Accept,
		Force:     req.Force,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserEditConflict) && res != nil {
			writeJSON(w, http.StatusConflict, conflictResponse{Error: err.Error(), ReconcileResult: res})
			return
		}
		h.writeServiceError(w, err, "failed to reconcile")
		return
	}

	status := http.StatusOK
	if res.Version != nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

func (h *ProofHandler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrProofNotFound), errors.Is(err, service.ErrUnknownBaseMajor):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUserEditConflict), errors.Is(err, service.ErrVersionConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrProofIDMissing),
		errors.Is(err, service.ErrContentEmpty),
		errors.Is(err, service.ErrInvalidBaseMajor),
		errors.Is(err, service.ErrNothingToReconcile):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
