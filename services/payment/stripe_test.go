package payment

import (
	"context"
	"errors"
	"testing"

	"capturemoments/models"

	"github.com/stripe/stripe-go/v76"
)

func TestCaptureBuildsConfirmedIntent(t *testing.T) {
	var got *stripe.PaymentIntentParams
	g := NewStripeGateway("usd", nil)
	g.create = func(p *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
		got = p
		return &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusSucceeded}, nil
	}

	charge, err := g.Capture(context.Background(), models.Booking{ID: "b1", Price: 123.456, Currency: "INR"}, "pm_card")
	if err != nil {
		t.Fatal(err)
	}
	if !charge.Succeeded || charge.Ref != "pi_1" {
		t.Fatalf("charge %+v", charge)
	}
	if *got.Amount != 12346 || *got.Currency != "inr" || !*got.Confirm || *got.PaymentMethod != "pm_card" {
		t.Fatalf("params amount=%d currency=%s", *got.Amount, *got.Currency)
	}
	if got.Metadata["booking_id"] != "b1" {
		t.Fatalf("metadata %v", got.Metadata)
	}
}

func TestCaptureOutcomes(t *testing.T) {
	cases := []struct {
		name        string
		pi          *stripe.PaymentIntent
		err         error
		wantErr     bool
		wantSuccess bool
	}{
		{"succeeded", &stripe.PaymentIntent{ID: "pi_2", Status: stripe.PaymentIntentStatusSucceeded}, nil, false, true},
		{"requires payment method", &stripe.PaymentIntent{ID: "pi_2", Status: stripe.PaymentIntentStatusRequiresPaymentMethod}, nil, false, false},
		{"canceled", &stripe.PaymentIntent{ID: "pi_2", Status: stripe.PaymentIntentStatusCanceled}, nil, false, false},
		{"requires action", &stripe.PaymentIntent{ID: "pi_2", Status: stripe.PaymentIntentStatusRequiresAction}, nil, true, false},
		{"processing", &stripe.PaymentIntent{ID: "pi_2", Status: stripe.PaymentIntentStatusProcessing}, nil, true, false},
		{"card declined", nil, &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeCardDeclined}, false, false},
		{"network", nil, errors.New("connection reset"), true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewStripeGateway("usd", nil)
			g.create = func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) { return tc.pi, tc.err }
			charge, err := g.Capture(context.Background(), models.Booking{ID: "b1", Price: 10}, "pm")
			if (err != nil) != tc.wantErr || charge.Succeeded != tc.wantSuccess {
				t.Fatalf("charge=%+v err=%v", charge, err)
			}
		})
	}
}

func TestUnsettledIntentIsNotADecline(t *testing.T) {
	g := NewStripeGateway("usd", nil)
	g.create = func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
		return &stripe.PaymentIntent{ID: "pi_3", Status: stripe.PaymentIntentStatusProcessing}, nil
	}
	charge, err := g.Capture(context.Background(), models.Booking{ID: "b1", Price: 10}, "pm")
	if !errors.Is(err, ErrChargePending) {
		t.Fatalf("expected pending error, got %v", err)
	}
	if charge.Ref != "pi_3" {
		t.Fatalf("ref lost: %+v", charge)
	}
}

func TestRefundTargetsIntent(t *testing.T) {
	var got *stripe.RefundParams
	g := NewStripeGateway("usd", nil)
	g.refund = func(p *stripe.RefundParams) (*stripe.Refund, error) {
		got = p
		return &stripe.Refund{ID: "re_1"}, nil
	}
	ref, err := g.Refund(context.Background(), models.Booking{ID: "b1"}, "pi_1")
	if err != nil || ref != "re_1" {
		t.Fatalf("refund %q %v", ref, err)
	}
	if *got.PaymentIntent != "pi_1" || got.Metadata["booking_id"] != "b1" {
		t.Fatalf("params %+v", got)
	}

	g.refund = func(*stripe.RefundParams) (*stripe.Refund, error) { return nil, errors.New("api down") }
	if _, err := g.Refund(context.Background(), models.Booking{ID: "b1"}, "pi_1"); err == nil {
		t.Fatal("expected refund error")
	}
}
