package chat

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"famhealth-backend/login"
	"famhealth-backend/members"
	"famhealth-backend/migrations"
	openaiclient "famhealth-backend/openai"
	"famhealth-backend/quota"

	"github.com/gin-gonic/gin"
)

const maxMessageLen = 1000

// AIClient abstracts the generation endpoint for easier mocking in tests.
type AIClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ConversationStore persists chat turns. *HistoryRepository satisfies it.
type ConversationStore interface {
	Append(memberID, userID int, role, content string, sourceCount int, confidence string) error
	History(memberID, userID int) ([]Message, error)
	Clear(memberID, userID int) error
}

// MemberDirectory resolves members for access control and context assembly.
// *members.Repository satisfies it.
type MemberDirectory interface {
	ByID(id int) (*members.Member, error)
}

type Handler struct {
	ai        AIClient
	retriever *Retriever
	history   ConversationStore
	members   MemberDirectory
	quota     *quota.Validator

	// auth is swappable so handler tests can run without a real session.
	auth func(c *gin.Context) (*migrations.User, bool)
	// now is swappable so window parsing is deterministic in tests.
	now func() time.Time
}

func NewHandler(ai AIClient, store ObservationStore, history ConversationStore, mem MemberDirectory, q *quota.Validator) *Handler {
	return &Handler{
		ai:        ai,
		retriever: NewRetriever(store),
		history:   history,
		members:   mem,
		quota:     q,
		auth:      login.UserFromRequest,
		now:       time.Now,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/members/:id/chat", h.answer)
	r.GET("/members/:id/chat", h.getHistory)
	r.DELETE("/members/:id/chat", h.clearHistory)
	r.GET("/chat/examples", h.examples)
}

func (h *Handler) ownedMember(c *gin.Context) (*members.Member, *migrations.User, bool) {
	user, ok := h.auth(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return nil, nil, false
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, nil, false
	}
	m, err := h.members.ByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	// Same answer for "not yours" and "does not exist".
	if m == nil || m.UserID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return nil, nil, false
	}
	return m, user, true
}

func (h *Handler) answer(c *gin.Context) {
	m, user, ok := h.ownedMember(c)
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required", "field": "message"})
		return
	}
	if len(msg) > maxMessageLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message too long", "field": "message"})
		return
	}
	if h.quota != nil {
		if err := h.quota.ValidateAndConsume(c.Request.Context(), c, "chat_message"); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
	}

	now := h.now()
	win := parseTimeRange(msg, now)
	intent := detectIntent(msg)
	topic := extractHealthTopic(msg)

	set, err := h.retriever.Retrieve(m.ID, win, topic)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if len(set.All) == 0 {
		var reply string
		if set.TotalEver == 0 {
			reply = "No lab reports have been uploaded for " + m.Name + " yet. Upload a report first and I can walk you through the results."
		} else {
			reply = "There are lab results for " + m.Name + ", but none in the time range you asked about. Try asking without a date, or with a wider range like \"this year\"."
		}
		h.record(m.ID, user.ID, msg, reply, 0, "none")
		c.JSON(http.StatusOK, gin.H{"response": reply, "confidence": "none", "source_count": 0})
		return
	}

	contextBlock := buildContext(set, m, topic, now)
	prompt := buildPrompt(intent, contextBlock, msg)

	raw, err := h.generateWithRetry(c.Request.Context(), prompt)
	if err != nil {
		if errors.Is(err, openaiclient.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "the assistant is not configured"})
			return
		}
		log.Printf("[chat][upstream] member_id=%d err=%v", m.ID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not reach the assistant, please try again"})
		return
	}

	text, confidence, violations := validate(raw, defaultConfidence(intent))
	if violations > 0 {
		log.Printf("[chat][guardrail] member_id=%d intent=%s rewrites=%d", m.ID, intent, violations)
	}

	h.record(m.ID, user.ID, msg, text, len(set.All), confidence)
	c.JSON(http.StatusOK, gin.H{"response": text, "confidence": confidence, "source_count": len(set.All)})
}

// generateWithRetry retries once on transient upstream failure. A missing
// credential is not transient and is returned as is.
func (h *Handler) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	out, err := h.ai.Generate(ctx, prompt)
	if err == nil || errors.Is(err, openaiclient.ErrNotConfigured) {
		return out, err
	}
	log.Printf("[chat][retry] upstream failure, retrying once: %v", err)
	time.Sleep(500 * time.Millisecond)
	return h.ai.Generate(ctx, prompt)
}

func (h *Handler) record(memberID, userID int, question, answer string, sourceCount int, confidence string) {
	if err := h.history.Append(memberID, userID, "user", question, 0, ""); err != nil {
		log.Printf("[chat][history] append user turn failed member_id=%d err=%v", memberID, err)
		return
	}
	if err := h.history.Append(memberID, userID, "assistant", answer, sourceCount, confidence); err != nil {
		log.Printf("[chat][history] append assistant turn failed member_id=%d err=%v", memberID, err)
	}
}

func (h *Handler) getHistory(c *gin.Context) {
	m, user, ok := h.ownedMember(c)
	if !ok {
		return
	}
	msgs, err := h.history.History(m.ID, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

func (h *Handler) clearHistory(c *gin.Context) {
	m, user, ok := h.ownedMember(c)
	if !ok {
		return
	}
	if err := h.history.Clear(m.ID, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

var exampleQuestions = []string{
	"Summarize my latest results",
	"Are any of my results abnormal?",
	"Show my results from last month",
	"How has my hemoglobin changed this year?",
	"How can I improve my cholesterol levels?",
}

func (h *Handler) examples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": exampleQuestions})
}
