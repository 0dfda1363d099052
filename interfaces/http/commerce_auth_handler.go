package http

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"coursemint/domain/apperror"
	"coursemint/infrastructure/logger"
	"coursemint/usecase"

	"github.com/gin-gonic/gin"
)

const stateTTL = 10 * time.Minute

type ICommerceAuthHandler interface {
	GetAuthURL(ctx *gin.Context)
	Callback(ctx *gin.Context)
	Status(ctx *gin.Context)
	Disconnect(ctx *gin.Context)
}

type pendingState struct {
	ownerID string
	expires time.Time
}

type commerceAuthHandler struct {
	tokens  usecase.ITokenUsecase
	stateMu sync.Mutex
	states  map[string]pendingState
	now     func() time.Time
}

func NewCommerceAuthHandler(tokens usecase.ITokenUsecase) ICommerceAuthHandler {
	return &commerceAuthHandler{tokens: tokens, states: map[string]pendingState{}, now: time.Now}
}

func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// GetAuthURL starts the connect flow for the authenticated creator.
func (h *commerceAuthHandler) GetAuthURL(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	state := randomState()
	now := h.now()
	h.stateMu.Lock()
	for s, p := range h.states {
		if now.After(p.expires) {
			delete(h.states, s)
		}
	}
	h.states[state] = pendingState{ownerID: userID, expires: now.Add(stateTTL)}
	h.stateMu.Unlock()
	c.JSON(http.StatusOK, gin.H{"auth_url": h.tokens.AuthCodeURL(state), "state": state})
}

// Callback completes the flow. The creator is identified by the state issued
// in GetAuthURL since the provider redirect carries no bearer token.
func (h *commerceAuthHandler) Callback(c *gin.Context) {
	if e := c.Query("error"); e != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization_denied", "message": e})
		return
	}
	code := c.Query("code")
	state := c.Query("state")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}
	h.stateMu.Lock()
	pending, ok := h.states[state]
	if ok {
		delete(h.states, state)
		if h.now().After(pending.expires) {
			ok = false
		}
	}
	h.stateMu.Unlock()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_state"})
		return
	}

	if err := h.tokens.Connect(c.Request.Context(), pending.ownerID, code); err != nil {
		respondError(c, err)
		return
	}
	logger.GetLogger().WithField("owner_id", pending.ownerID).Info("commerce account connected")
	c.JSON(http.StatusOK, gin.H{"connected": true})
}

func (h *commerceAuthHandler) Status(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	tok, err := h.tokens.Status(c.Request.Context(), userID)
	if apperror.CodeOf(err) == apperror.CodeNotConnected {
		c.JSON(http.StatusOK, gin.H{"connected": false})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"connected":  !tok.Invalid,
		"needs_auth": tok.Invalid,
		"expires_at": tok.ExpiresAt,
		"scopes":     tok.Scopes,
	})
}

func (h *commerceAuthHandler) Disconnect(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	if err := h.tokens.Disconnect(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
