package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"koachReaderAPI/internal/challenge"
	"koachReaderAPI/middleware"
	"koachReaderAPI/services"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
}

func NewChallengeHandler(challengeService *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
	}
}

func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.challengeService.CreateChallenge(ctx, clerkID, &req)
	if err != nil {
		log.Printf("CreateChallenge Handler: Service error: %v", err)
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *ChallengeHandler) GetChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	challenges, err := h.challengeService.GetChallenges(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, challenges)
}

func (h *ChallengeHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	challengeID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge ID")
		return
	}

	c, err := h.challengeService.GetChallenge(ctx, clerkID, challengeID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrChallengeNotFound):
			respondWithError(w, http.StatusNotFound, "Challenge not found")
		case errors.Is(err, challenge.ErrPrivateChallenge):
			respondWithError(w, http.StatusForbidden, "This challenge is private")
		default:
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *ChallengeHandler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	challengeID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge ID")
		return
	}

	p, err := h.challengeService.JoinChallenge(ctx, clerkID, challengeID)
	if err != nil {
		log.Printf("JoinChallenge Handler: Service error: %v", err)
		switch {
		case errors.Is(err, services.ErrChallengeNotFound):
			respondWithError(w, http.StatusNotFound, "Challenge not found")
		case errors.Is(err, challenge.ErrPrivateChallenge):
			respondWithError(w, http.StatusForbidden, "This challenge is private")
		case errors.Is(err, challenge.ErrAlreadyJoined):
			respondWithError(w, http.StatusConflict, "Already joined this challenge")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to join challenge")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, p)
}

func (h *ChallengeHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	challengeID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge ID")
		return
	}

	var req challenge.UpdateProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.challengeService.UpdateProgress(ctx, clerkID, challengeID, req.Progress)
	if err != nil {
		log.Printf("UpdateProgress Handler: Service error: %v", err)
		switch {
		case errors.Is(err, services.ErrChallengeNotFound):
			respondWithError(w, http.StatusNotFound, "Challenge not found")
		case errors.Is(err, challenge.ErrProgressDecrease), errors.Is(err, challenge.ErrNegativeProgress):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to update progress")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

func (h *ChallengeHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	challengeID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge ID")
		return
	}

	entries, err := h.challengeService.GetLeaderboard(ctx, clerkID, challengeID)
	if err != nil {
		if errors.Is(err, services.ErrChallengeNotFound) {
			respondWithError(w, http.StatusNotFound, "Challenge not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}
