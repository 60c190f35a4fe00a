package subscriptions

import "time"

type Plan struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	Currency        string  `json:"currency"`
	Price           float64 `json:"price"`
	Billing         string  `json:"billing"`
	Consultations   int     `json:"consultations"`
	Reports         int     `json:"reports"`
	Members         int     `json:"members"`
	StripeProductID string  `json:"stripe_product_id,omitempty"`
	StripePriceID   string  `json:"stripe_price_id,omitempty"`
}

type Subscription struct {
	ID            int        `json:"id"`
	UserID        int        `json:"user_id"`
	PlanID        int        `json:"plan_id"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	Consultations int        `json:"consultations"`
	Reports       int        `json:"reports"`
	Members       int        `json:"members"`
	Plan          *Plan      `json:"subscription_plan,omitempty"`
}
