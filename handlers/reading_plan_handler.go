package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"koachReaderAPI/internal/plan"
	"koachReaderAPI/middleware"
	"koachReaderAPI/services"
)

type ReadingPlanHandler struct {
	planService *services.ReadingPlanService
}

func NewReadingPlanHandler(planService *services.ReadingPlanService) *ReadingPlanHandler {
	return &ReadingPlanHandler{
		planService: planService,
	}
}

func (h *ReadingPlanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req plan.CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.planService.CreatePlan(ctx, clerkID, &req)
	if err != nil {
		log.Printf("CreatePlan Handler: Service error: %v", err)
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			respondWithError(w, http.StatusNotFound, "Book not found")
		case errors.Is(err, plan.ErrInvalidDateRange):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			respondWithError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, p)
}

func (h *ReadingPlanHandler) GetPlans(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	plans, err := h.planService.GetPlans(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, plans)
}

func (h *ReadingPlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	planID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid plan ID")
		return
	}

	p, err := h.planService.GetPlan(ctx, clerkID, planID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPlanNotFound):
			respondWithError(w, http.StatusNotFound, "Reading plan not found")
		case errors.Is(err, services.ErrNotPlanOwner):
			respondWithError(w, http.StatusForbidden, "Reading plan belongs to another user")
		default:
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *ReadingPlanHandler) RecordProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	planID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid plan ID")
		return
	}

	var req plan.RecordProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.planService.RecordProgress(ctx, clerkID, planID, &req)
	if err != nil {
		log.Printf("RecordProgress Handler: Service error: %v", err)
		switch {
		case errors.Is(err, services.ErrPlanNotFound):
			respondWithError(w, http.StatusNotFound, "Reading plan not found")
		case errors.Is(err, services.ErrNotPlanOwner):
			respondWithError(w, http.StatusForbidden, "Reading plan belongs to another user")
		case errors.Is(err, plan.ErrInvalidPagesRead):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to record progress")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

func (h *ReadingPlanHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	page := 1
	pageSize := 20
	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if ps := r.URL.Query().Get("pageSize"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= 100 {
			pageSize = parsed
		}
	}

	sessions, err := h.planService.GetSessions(ctx, clerkID, page, pageSize)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, sessions)
}
