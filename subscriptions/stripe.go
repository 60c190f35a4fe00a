package subscriptions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// StripeService creates checkout sessions for paid plans and consumes webhooks.
// When STRIPE_SECRET_KEY is not set the service is nil and handlers respond 503.
type StripeService struct {
	repo          *Repository
	secretKey     string
	webhookSecret string
	successURL    string
	cancelURL     string
	sc            *client.API
	invalidKey    bool // once detected, short-circuit further remote calls
}

var ErrStripeInvalidAPIKey = errors.New("stripe_invalid_api_key")

func maskKey(k string) string {
	if len(k) < 12 {
		return "****"
	}
	return k[:7] + "..." + k[len(k)-4:]
}

// NewStripeFromEnv returns a configured service or nil when env vars are
// missing. Success/cancel URLs default to the web app's billing pages,
// derived from APP_BASE_URL.
func NewStripeFromEnv(repo *Repository) *StripeService {
	key := os.Getenv("STRIPE_SECRET_KEY")
	if key == "" {
		return nil
	}
	base := os.Getenv("APP_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	success := os.Getenv("STRIPE_SUCCESS_URL")
	if success == "" {
		success = base + "/billing/success"
	}
	cancel := os.Getenv("STRIPE_CANCEL_URL")
	if cancel == "" {
		cancel = base + "/billing/cancelled"
	}
	sc := &client.API{}
	sc.Init(key, nil)
	return &StripeService{
		repo:          repo,
		secretKey:     key,
		webhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		successURL:    success,
		cancelURL:     cancel,
		sc:            sc,
	}
}

func (s *StripeService) ensureStripeProductAndPrice(ctx context.Context, p *Plan) error {
	if p.Price == 0 { // free plan needs no Stripe objects
		return nil
	}
	if p.StripeProductID == "" {
		prod, err := s.sc.Products.New(&stripe.ProductParams{Name: stripe.String(p.Name)})
		if err != nil {
			return err
		}
		p.StripeProductID = prod.ID
	}
	if p.StripePriceID != "" {
		if pr, err := s.sc.Prices.Get(p.StripePriceID, nil); err == nil {
			desired := int64(p.Price * 100)
			if pr.UnitAmount != desired { // new price; keep old for historic invoices
				price, err := s.sc.Prices.New(&stripe.PriceParams{
					Product:    stripe.String(p.StripeProductID),
					Currency:   stripe.String(p.Currency),
					UnitAmount: stripe.Int64(desired),
					Recurring:  &stripe.PriceRecurringParams{Interval: stripe.String("month")},
				})
				if err != nil {
					return err
				}
				p.StripePriceID = price.ID
			}
		} else { // price id invalid, recreate
			p.StripePriceID = ""
		}
	}
	if p.StripePriceID == "" {
		price, err := s.sc.Prices.New(&stripe.PriceParams{
			Product:    stripe.String(p.StripeProductID),
			Currency:   stripe.String(p.Currency),
			UnitAmount: stripe.Int64(int64(p.Price * 100)),
			Recurring:  &stripe.PriceRecurringParams{Interval: stripe.String("month")},
		})
		if err != nil {
			return err
		}
		p.StripePriceID = price.ID
	}
	return nil
}

// CreateCheckoutSessionWithID returns the hosted checkout URL plus the session ID.
// Free plans activate immediately without touching Stripe.
func (s *StripeService) CreateCheckoutSessionWithID(ctx context.Context, userID, planID int) (string, string, error) {
	if s == nil {
		return "", "", errors.New("stripe not configured")
	}
	plan, err := s.repo.GetPlanByID(planID)
	if err != nil || plan == nil {
		return "", "", fmt.Errorf("invalid plan")
	}
	if plan.Price == 0 {
		sub := &Subscription{UserID: userID, PlanID: plan.ID, StartDate: time.Now()}
		if err := s.repo.CreateSubscription(sub); err != nil {
			return "", "", err
		}
		return s.successURL, "", nil
	}
	if err := s.ensureStripeProductAndPrice(ctx, plan); err != nil {
		if s.isInvalidKey(err) {
			log.Printf("[STRIPE][ensure] invalid api key (%s): %v", maskKey(s.secretKey), err)
			s.invalidKey = true
			return "", "", ErrStripeInvalidAPIKey
		}
		return "", "", err
	}
	_ = s.repo.UpdatePlan(plan.ID, plan)
	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(plan.StripePriceID),
			Quantity: stripe.Int64(1),
		}},
		Metadata: map[string]string{
			"user_id": strconv.Itoa(userID),
			"plan_id": strconv.Itoa(planID),
		},
	}
	if s.invalidKey {
		return "", "", ErrStripeInvalidAPIKey
	}
	sess, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		if s.isInvalidKey(err) {
			log.Printf("[STRIPE][checkout] invalid api key (%s): %v", maskKey(s.secretKey), err)
			s.invalidKey = true
			return "", "", ErrStripeInvalidAPIKey
		}
		log.Printf("[STRIPE][checkout] error: %v", err)
		return "", "", err
	}
	return sess.URL, sess.ID, nil
}

func (s *StripeService) isInvalidKey(err error) bool {
	var se *stripe.Error
	return errors.As(err, &se) && (se.HTTPStatusCode == 401 || strings.Contains(strings.ToLower(se.Msg), "invalid api key"))
}

// HandleWebhook creates a subscription when a checkout completes.
func (s *StripeService) HandleWebhook(w http.ResponseWriter, r *http.Request) error {
	if s == nil {
		return errors.New("stripe not configured")
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	sig := r.Header.Get("Stripe-Signature")
	if s.webhookSecret != "" {
		if _, err := webhook.ConstructEvent(payload, sig, s.webhookSecret); err != nil {
			return fmt.Errorf("invalid signature: %w", err)
		}
	}
	var event struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				Metadata map[string]string `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return err
	}
	if event.Type != "checkout.session.completed" {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ignored"))
		return nil
	}
	uid, _ := strconv.Atoi(event.Data.Object.Metadata["user_id"])
	pid, _ := strconv.Atoi(event.Data.Object.Metadata["plan_id"])
	if uid == 0 || pid == 0 {
		return fmt.Errorf("incomplete metadata")
	}
	sub := &Subscription{UserID: uid, PlanID: pid, StartDate: time.Now()}
	if err := s.repo.CreateSubscription(sub); err != nil {
		return err
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
	return nil
}

// ConfirmSession queries Stripe; if the session completed and no matching
// subscription exists yet, one is created (idempotent).
func (s *StripeService) ConfirmSession(sessionID string) (bool, int, error) {
	if s == nil {
		return false, 0, errors.New("stripe not configured")
	}
	if sessionID == "" {
		return false, 0, errors.New("empty session_id")
	}
	sess, err := s.sc.CheckoutSessions.Get(sessionID, nil)
	if err != nil {
		return false, 0, err
	}
	if sess.Status != stripe.CheckoutSessionStatusComplete {
		return false, 0, nil
	}
	uid, _ := strconv.Atoi(sess.Metadata["user_id"])
	pid, _ := strconv.Atoi(sess.Metadata["plan_id"])
	if uid == 0 || pid == 0 {
		return false, 0, errors.New("incomplete metadata")
	}
	sub, _ := s.repo.GetActiveSubscription(uid)
	if sub != nil && sub.PlanID == pid {
		return false, sub.ID, nil
	}
	newSub := &Subscription{UserID: uid, PlanID: pid, StartDate: time.Now()}
	if err := s.repo.CreateSubscription(newSub); err != nil {
		return false, 0, err
	}
	return true, newSub.ID, nil
}
