// internal/mpesa/completion.go

package mpesa

import (
	"context"
	"log"
	"time"

	"github.com/imadgeboyega/matchup-backend/internal/features"
	"github.com/imadgeboyega/matchup-backend/internal/notification"
	"github.com/imadgeboyega/matchup-backend/internal/plans"
	"github.com/imadgeboyega/matchup-backend/internal/subscriptions"
)

// SubscriptionCompleter turns a paid plan into subscription time and
// feature access
type SubscriptionCompleter struct {
	plans         PlanGetter
	subscriptions subscriptions.Extender
	features      features.Granter
	sms           notification.SMSService
	now           func() time.Time
}

// NewSubscriptionCompleter wires plan payments to subscriptions and
// features. sms may be nil.
func NewSubscriptionCompleter(plans PlanGetter, subs subscriptions.Extender, granter features.Granter, sms notification.SMSService) *SubscriptionCompleter {
	return &SubscriptionCompleter{
		plans:         plans,
		subscriptions: subs,
		features:      granter,
		sms:           sms,
		now:           time.Now,
	}
}

func (c *SubscriptionCompleter) PaymentSucceeded(ctx context.Context, req *Request, p *Payment) error {
	if req.PlanID == nil {
		log.Printf("Subscription payment %s has no plan, skipping", req.CheckoutRequestID)
		return nil
	}

	plan, err := c.plans.Get(ctx, *req.PlanID)
	if err != nil {
		return err
	}
	days := plan.DurationDays
	if days <= 0 {
		days = plans.DefaultDurationDays
	}

	res, err := c.subscriptions.ExtendIfExpired(ctx, req.UserID, req.PlanID, days)
	if err != nil {
		return err
	}
	if res.Status == subscriptions.ExtensionStillActive {
		log.Printf("User %d paid %s while subscription still active", req.UserID, p.MpesaReceiptNumber)
		return nil
	}

	end := c.now().UTC().AddDate(0, 0, days)
	if res.Subscription != nil && res.Subscription.EndDate != nil {
		end = *res.Subscription.EndDate
	}
	if names := plan.FeatureNames(); len(names) > 0 {
		if err := c.features.Grant(ctx, req.UserID, names, c.now().UTC(), end); err != nil {
			return err
		}
	}

	if c.sms != nil {
		msg := notification.SubscriptionReceiptSMS(req.Phone, plan.Name, p.MpesaReceiptNumber, end.Format("2006-01-02"))
		if err := c.sms.SendSMS(ctx, msg); err != nil {
			log.Printf("Failed to send subscription receipt to %s: %v", req.Phone, err)
		}
	}

	log.Printf("Subscription for user %d %s until %s", req.UserID, res.Status, end.Format(time.RFC3339))
	return nil
}

func (c *SubscriptionCompleter) PaymentFailed(ctx context.Context, req *Request, p *Payment) error {
	log.Printf("Subscription payment %s for user %d failed: %s", req.CheckoutRequestID, req.UserID, p.ResultDesc)
	return nil
}
