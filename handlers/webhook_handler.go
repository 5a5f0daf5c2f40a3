package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"koachReaderAPI/internal/clerk"
	"koachReaderAPI/internal/user"
	"koachReaderAPI/services"
)

type WebhookHandler struct {
	userService *services.UserService
}

func NewWebhookHandler(userService *services.UserService) *WebhookHandler {
	return &WebhookHandler{
		userService: userService,
	}
}

// HandleClerkWebhook receives user lifecycle events from Clerk and mirrors
// them into the local users table. Payloads are authenticated with the svix
// signature scheme before any processing.
func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Webhook: Failed to read body: %v", err)
		respondWithError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	if err := verifyWebhookSignature(r, body); err != nil {
		log.Printf("Webhook: Signature verification failed: %v", err)
		respondWithError(w, http.StatusUnauthorized, "Invalid webhook signature")
		return
	}

	var event clerk.ClerkWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("Webhook: Failed to parse event: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid event payload")
		return
	}

	log.Printf("Webhook: Received event %s", event.Type)

	switch event.Type {
	case "user.created":
		h.handleUserCreated(ctx, w, event.Data)
	case "user.updated":
		h.handleUserUpdated(ctx, w, event.Data)
	case "user.deleted":
		h.handleUserDeleted(ctx, w, event.Data)
	case "email.created":
		h.handleEmailVerified(ctx, w, event.Data)
	default:
		// Unhandled event types are acknowledged so Clerk stops retrying.
		respondWithJSON(w, http.StatusOK, map[string]string{"message": "Event ignored"})
	}
}

// verifyWebhookSignature checks the svix headers against CLERK_WEBHOOK_SECRET.
// The signed content is "{svix-id}.{svix-timestamp}.{body}" and the header may
// carry several space-separated "v1,<sig>" candidates.
func verifyWebhookSignature(r *http.Request, body []byte) error {
	secret := os.Getenv("CLERK_WEBHOOK_SECRET")
	if secret == "" {
		return fmt.Errorf("CLERK_WEBHOOK_SECRET not configured")
	}

	svixID := r.Header.Get("svix-id")
	svixTimestamp := r.Header.Get("svix-timestamp")
	svixSignature := r.Header.Get("svix-signature")
	if svixID == "" || svixTimestamp == "" || svixSignature == "" {
		return fmt.Errorf("missing svix headers")
	}

	secretBytes, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, "whsec_"))
	if err != nil {
		return fmt.Errorf("invalid webhook secret: %w", err)
	}

	signedContent := fmt.Sprintf("%s.%s.%s", svixID, svixTimestamp, body)
	mac := hmac.New(sha256.New, secretBytes)
	mac.Write([]byte(signedContent))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, candidate := range strings.Split(svixSignature, " ") {
		sig := strings.TrimPrefix(candidate, "v1,")
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}

	return fmt.Errorf("no matching signature")
}

func (h *WebhookHandler) handleUserCreated(ctx context.Context, w http.ResponseWriter, data json.RawMessage) {
	var userData clerk.ClerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		log.Printf("Webhook: Failed to parse user.created data: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid user data")
		return
	}

	email := ""
	if len(userData.EmailAddresses) > 0 {
		email = userData.EmailAddresses[0].EmailAddress
	}

	username := userData.Username
	if username == "" && email != "" {
		username = strings.Split(email, "@")[0]
	}

	imageURL := userData.ImageURL
	if imageURL == "" {
		imageURL = userData.ProfileImageURL
	}

	req := &user.CreateUserRequest{
		ClerkID:   userData.ID,
		Email:     email,
		Username:  username,
		FirstName: userData.FirstName,
		LastName:  userData.LastName,
		ImageURL:  imageURL,
	}

	u, err := h.userService.CreateUser(ctx, req)
	if err != nil {
		log.Printf("Webhook: Failed to create user %s: %v", userData.ID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	log.Printf("Webhook: Created user %s for clerk ID %s", u.ID, userData.ID)
	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "User created"})
}

func (h *WebhookHandler) handleUserUpdated(ctx context.Context, w http.ResponseWriter, data json.RawMessage) {
	var userData clerk.ClerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		log.Printf("Webhook: Failed to parse user.updated data: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid user data")
		return
	}

	imageURL := userData.ImageURL
	if imageURL == "" {
		imageURL = userData.ProfileImageURL
	}

	req := &user.UpdateProfileRequest{
		Username:  userData.Username,
		FirstName: userData.FirstName,
		LastName:  userData.LastName,
		ImageURL:  imageURL,
	}

	if _, err := h.userService.UpdateProfileByClerkID(ctx, userData.ID, req); err != nil {
		log.Printf("Webhook: Failed to update user %s: %v", userData.ID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "User updated"})
}

func (h *WebhookHandler) handleUserDeleted(ctx context.Context, w http.ResponseWriter, data json.RawMessage) {
	var userData struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &userData); err != nil {
		log.Printf("Webhook: Failed to parse user.deleted data: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid user data")
		return
	}

	if err := h.userService.DeleteUserByClerkID(ctx, userData.ID); err != nil {
		log.Printf("Webhook: Failed to delete user %s: %v", userData.ID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	log.Printf("Webhook: Deleted user for clerk ID %s", userData.ID)
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

func (h *WebhookHandler) handleEmailVerified(ctx context.Context, w http.ResponseWriter, data json.RawMessage) {
	var userData clerk.ClerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user data")
		return
	}

	verified := false
	for _, addr := range userData.EmailAddresses {
		if addr.Verification.Status == "verified" {
			verified = true
			break
		}
	}

	if verified {
		if err := h.userService.UpdateEmailVerification(ctx, userData.ID, true); err != nil {
			log.Printf("Webhook: Failed to update email verification for %s: %v", userData.ID, err)
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Email verification processed"})
}
