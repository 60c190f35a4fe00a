package quota

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	mailer "famhealth-backend/email"
	"famhealth-backend/login"
	"famhealth-backend/subscriptions"

	"github.com/gin-gonic/gin"
)

// Flow to subscription field mapping
var flowField = map[string]string{
	"chat_message":  "consultations",
	"report_upload": "reports",
	"member_create": "members",
}

// Validator provides quota validation wired into handlers.
type Validator struct {
	subs *subscriptions.Repository
}

func NewValidator(repo *subscriptions.Repository) *Validator { return &Validator{subs: repo} }

// ValidateAndConsume identifies the user from the Authorization token, fetches
// the active subscription and decrements the mapped field by 1.
func (v *Validator) ValidateAndConsume(ctx context.Context, c *gin.Context, flow string) error {
	field, ok := flowField[flow]
	if !ok { // unknown flow -> allow
		log.Printf("[quota][skip] flow=%s reason=unknown_flow", flow)
		return nil
	}
	if os.Getenv("QUOTA_DISABLE") == "1" {
		c.Set("quota_field", field)
		c.Set("quota_remaining", "debug-infinite")
		log.Printf("[quota][bypass] flow=%s field=%s QUOTA_DISABLE=1", flow, field)
		return nil
	}
	auth := c.GetHeader("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if token == "" {
		log.Printf("[quota][deny] flow=%s field=%s reason=missing_token", flow, field)
		return errors.New("missing token")
	}
	email, ok := login.GetEmailFromToken(token)
	if !ok {
		log.Printf("[quota][deny] flow=%s field=%s reason=invalid_session token_prefix=%s", flow, field, tokenSummary(token))
		return errors.New("invalid session")
	}
	u := userResolver(email)
	if u == nil {
		log.Printf("[quota][deny] flow=%s field=%s email=%s reason=user_not_found", flow, field, email)
		return errors.New("user not found")
	}
	sub, err := v.subs.GetActiveSubscription(u.ID)
	if err != nil {
		log.Printf("[quota][error] flow=%s field=%s user_id=%d email=%s err=%v", flow, field, u.ID, email, err)
		return err
	}
	if sub == nil {
		log.Printf("[quota][deny] flow=%s field=%s user_id=%d email=%s reason=no_subscription", flow, field, u.ID, email)
		return errors.New("no subscription")
	}
	var remaining int
	switch field {
	case "consultations":
		remaining = sub.Consultations
	case "reports":
		remaining = sub.Reports
	case "members":
		remaining = sub.Members
	}
	if remaining <= 0 {
		c.Set("quota_error_field", field)
		c.Set("quota_error_reason", "exhausted")
		log.Printf("[quota][exhausted] flow=%s field=%s user_id=%d sub_id=%d email=%s remaining=%d", flow, field, u.ID, sub.ID, email, remaining)
		go func(to string) {
			if err := mailer.SendUpgradeSuggestion(to); err != nil {
				log.Printf("[quota][upgrade_mail] send failed to=%s err=%v", to, err)
			}
		}(email)
		return errors.New("quota exhausted")
	}
	log.Printf("[quota][consume] flow=%s field=%s user_id=%d sub_id=%d email=%s remaining_before=%d amount=1", flow, field, u.ID, sub.ID, email, remaining)
	consumed, err := v.subs.ConsumeQuota(sub.ID, field, 1)
	if err != nil {
		log.Printf("[quota][error] flow=%s field=%s user_id=%d sub_id=%d email=%s err=%v", flow, field, u.ID, sub.ID, email, err)
		return err
	}
	if !consumed {
		c.Set("quota_error_field", field)
		c.Set("quota_error_reason", "exhausted")
		log.Printf("[quota][race_exhausted] flow=%s field=%s user_id=%d sub_id=%d email=%s remaining_precheck=%d", flow, field, u.ID, sub.ID, email, remaining)
		return errors.New("quota exhausted")
	}
	c.Set("quota_field", field)
	c.Set("quota_remaining", remaining-1)
	log.Printf("[quota][ok] flow=%s field=%s user_id=%d sub_id=%d email=%s remaining_after=%d", flow, field, u.ID, sub.ID, email, remaining-1)
	return nil
}

// tokenSummary returns a short (safe) representation of a token for logs
func tokenSummary(t string) string {
	if len(t) <= 8 {
		return t
	}
	return t[:4] + "..." + t[len(t)-4:]
}

// --- User resolver adapter ---
// Indirection avoids tight coupling with the migrations user structures.

var userResolver = func(email string) *UserLite { return nil }

// RegisterUserResolver allows main to provide a resolver.
func RegisterUserResolver(fn func(email string) *UserLite) { userResolver = fn }

// UserLite minimal projection
type UserLite struct {
	ID    int
	Email string
}

func (v *Validator) Middleware(flow string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := v.ValidateAndConsume(c.Request.Context(), c, flow); err != nil {
			c.JSON(403, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		c.Next()
	}
}
