package subscriptions

import (
	"database/sql"
	"fmt"
	"strings"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetPlans() ([]Plan, error) {
	rows, err := r.db.Query(`SELECT id, name, currency, price, billing, consultations, reports, members FROM subscription_plans`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	plans := []Plan{}
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Currency, &p.Price, &p.Billing, &p.Consultations, &p.Reports, &p.Members); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *Repository) GetPlanByID(id int) (*Plan, error) {
	row := r.db.QueryRow(`SELECT id, name, currency, price, billing, consultations, reports, members, stripe_product_id, stripe_price_id FROM subscription_plans WHERE id=? LIMIT 1`, id)
	var p Plan
	if err := row.Scan(&p.ID, &p.Name, &p.Currency, &p.Price, &p.Billing, &p.Consultations, &p.Reports, &p.Members, &p.StripeProductID, &p.StripePriceID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) CreatePlan(p *Plan) error {
	res, err := r.db.Exec(`INSERT INTO subscription_plans (name, currency, price, billing, consultations, reports, members) VALUES (?,?,?,?,?,?,?)`,
		p.Name, p.Currency, p.Price, p.Billing, p.Consultations, p.Reports, p.Members)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = int(id)
	return nil
}

func (r *Repository) UpdatePlan(id int, p *Plan) error {
	_, err := r.db.Exec(`UPDATE subscription_plans SET name=?, currency=?, price=?, billing=?, consultations=?, reports=?, members=?, stripe_product_id=?, stripe_price_id=? WHERE id=?`,
		p.Name, p.Currency, p.Price, p.Billing, p.Consultations, p.Reports, p.Members, p.StripeProductID, p.StripePriceID, id)
	return err
}

func (r *Repository) DeletePlan(id int) error {
	_, err := r.db.Exec(`DELETE FROM subscription_plans WHERE id=?`, id)
	return err
}

func (r *Repository) GetSubscriptions(userID int) ([]Subscription, error) {
	rows, err := r.db.Query(`SELECT s.id, s.user_id, s.plan_id, s.start_date, s.end_date, s.consultations, s.reports, s.members, p.id, p.name, p.currency, p.price, p.billing, p.consultations, p.reports, p.members FROM subscriptions s JOIN subscription_plans p ON s.plan_id = p.id WHERE (?=0 OR s.user_id=?)`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	subs := []Subscription{}
	for rows.Next() {
		var s Subscription
		var plan Plan
		err := rows.Scan(&s.ID, &s.UserID, &s.PlanID, &s.StartDate, &s.EndDate, &s.Consultations, &s.Reports, &s.Members,
			&plan.ID, &plan.Name, &plan.Currency, &plan.Price, &plan.Billing, &plan.Consultations, &plan.Reports, &plan.Members)
		if err != nil {
			return nil, err
		}
		s.Plan = &plan
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// GetActiveSubscription returns the most recent open subscription for the user.
func (r *Repository) GetActiveSubscription(userID int) (*Subscription, error) {
	row := r.db.QueryRow(`SELECT id, user_id, plan_id, start_date, end_date, consultations, reports, members FROM subscriptions WHERE user_id=? AND (end_date IS NULL OR end_date > NOW()) ORDER BY start_date DESC LIMIT 1`, userID)
	var s Subscription
	err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.StartDate, &s.EndDate, &s.Consultations, &s.Reports, &s.Members)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &s, nil
}

func (r *Repository) CreateSubscription(s *Subscription) error {
	// Initialize quotas from the plan when unset
	if s.Consultations == 0 && s.Reports == 0 && s.Members == 0 {
		plan, err := r.GetPlanByID(s.PlanID)
		if err != nil {
			return err
		}
		if plan != nil {
			s.Consultations = plan.Consultations
			s.Reports = plan.Reports
			s.Members = plan.Members
		}
	}
	res, err := r.db.Exec(`INSERT INTO subscriptions (user_id, plan_id, start_date, end_date, consultations, reports, members) VALUES (?,?,?,?,?,?,?)`,
		s.UserID, s.PlanID, s.StartDate, s.EndDate, s.Consultations, s.Reports, s.Members)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = int(id)
	return nil
}

// ConsumeQuota atomically decrements a quota field, refusing to go below zero.
// Returns false when the quota was already exhausted.
func (r *Repository) ConsumeQuota(subID int, field string, amount int) (bool, error) {
	allowed := map[string]bool{"consultations": true, "reports": true, "members": true}
	if !allowed[field] {
		return false, fmt.Errorf("unknown quota field %q", field)
	}
	if amount <= 0 {
		return false, fmt.Errorf("amount must be > 0")
	}
	q := fmt.Sprintf("UPDATE subscriptions SET %s = %s - ? WHERE id = ? AND %s >= ?", field, field, field)
	res, err := r.db.Exec(q, amount, subID, amount)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DecrementSubscriptionFields decreases the provided fields, clamped at 0.
func (r *Repository) DecrementSubscriptionFields(id int, deltas map[string]int) error {
	if len(deltas) == 0 {
		return nil
	}
	allowed := map[string]bool{"consultations": true, "reports": true, "members": true}
	sets := []string{}
	args := []interface{}{}
	for k, v := range deltas {
		if !allowed[k] {
			continue
		}
		if v < 0 {
			return fmt.Errorf("delta for %s must be >= 0", k)
		}
		if v > 0 {
			sets = append(sets, k+" = GREATEST("+k+" - ?, 0)")
			args = append(args, v)
		}
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := "UPDATE subscriptions SET " + strings.Join(sets, ", ") + " WHERE id=?"
	_, err := r.db.Exec(query, args...)
	return err
}

func (r *Repository) DeleteSubscription(id int) error {
	_, err := r.db.Exec(`DELETE FROM subscriptions WHERE id=?`, id)
	return err
}
