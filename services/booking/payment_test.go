package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"capturemoments/models"
	"capturemoments/services/errs"
)

type fakeGateway struct {
	succeed   bool
	beforeRet func()
	refundErr error
	refunded  []string
}

func (g *fakeGateway) Capture(_ context.Context, b models.Booking, _ string) (Charge, error) {
	if g.beforeRet != nil {
		g.beforeRet()
	}
	return Charge{Ref: "pi_" + b.ID, Succeeded: g.succeed}, nil
}

func (g *fakeGateway) Refund(_ context.Context, _ models.Booking, ref string) (string, error) {
	if g.refundErr != nil {
		return "", g.refundErr
	}
	g.refunded = append(g.refunded, ref)
	return "re_" + ref, nil
}

func TestPayBookingConfirmsOrCancels(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	gw := &fakeGateway{succeed: true}
	e.orch.gateway = gw

	paid, _ := e.request("c1", "p1", e.span(9, 0, 10, 0))
	got, err := e.orch.PayBooking(ctx, paid.ID, "c1", "pm_card")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusConfirmed || got.PaymentRef != "pi_"+paid.ID {
		t.Fatalf("unexpected booking after payment %+v", got)
	}

	gw.succeed = false
	declined, _ := e.request("c2", "p1", e.span(10, 0, 11, 0))
	got, err = e.orch.PayBooking(ctx, declined.ID, "c2", "pm_card")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusCancelled || got.CancelReason != ReasonPaymentFailed {
		t.Fatalf("declined payment should cancel, got %+v", got)
	}
	if _, err := e.request("c3", "p1", e.span(10, 0, 11, 0)); err != nil {
		t.Fatalf("declined booking should free its slot: %v", err)
	}
	if len(gw.refunded) != 0 {
		t.Fatalf("nothing should be refunded, got %v", gw.refunded)
	}
}

func TestChargeOnExpiredHoldIsRefunded(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b, _ := e.request("c1", "p1", e.span(10, 0, 11, 0))

	gw := &fakeGateway{succeed: true}
	gw.beforeRet = func() {
		// the pending sweep runs while the charge is in flight
		e.orch.now = func() time.Time { return time.Now().Add(time.Hour) }
		defer func() { e.orch.now = time.Now }()
		if n, err := e.orch.ExpirePending(ctx); err != nil || n != 1 {
			t.Errorf("expire: %d %v", n, err)
		}
	}
	e.orch.gateway = gw

	_, err := e.orch.PayBooking(ctx, b.ID, "c1", "pm_card")
	if !errs.Is(err, errs.KindInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if len(gw.refunded) != 1 || gw.refunded[0] != "pi_"+b.ID {
		t.Fatalf("charge not refunded: %v", gw.refunded)
	}
	stored, _ := e.orch.GetBooking(ctx, b.ID, "")
	if stored.Status != models.StatusCancelled || stored.PaymentRef != "pi_"+b.ID || stored.RefundRef != "re_pi_"+b.ID {
		t.Fatalf("charge not recorded on booking: %+v", stored)
	}
}

func TestFailedRefundKeepsChargeOnRecord(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b, _ := e.request("c1", "p1", e.span(10, 0, 11, 0))
	if _, err := e.orch.CancelBooking(ctx, b.ID, ReasonClient); err != nil {
		t.Fatal(err)
	}

	// cancelled between the status check and the gateway reply
	e.orch.gateway = &fakeGateway{succeed: true, refundErr: errors.New("stripe down")}
	_, err := e.orch.HandlePaymentResult(ctx, b.ID, "pi_x", true)
	if !errs.Is(err, errs.KindInvalidState) {
		t.Fatalf("expected invalid state from confirm, got %v", err)
	}
	err = e.orch.refund(ctx, *b, "pi_x")
	if !errs.Is(err, errs.KindDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
	stored, _ := e.orch.GetBooking(ctx, b.ID, "")
	if stored.PaymentRef != "pi_x" || stored.RefundRef != "" {
		t.Fatalf("orphaned charge not recorded: %+v", stored)
	}
}
