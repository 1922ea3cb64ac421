package enums

import "testing"

func TestParseItemType(t *testing.T) {
	got, err := ParseItemType(" Car ")
	if err != nil || got != ItemTypeCar {
		t.Fatalf("expected car, got %q err=%v", got, err)
	}
	if _, err := ParseItemType("boat"); err == nil {
		t.Fatalf("expected error for unknown item type")
	}
	if ItemTypeTour.HasDateConflicts() {
		t.Fatalf("tours never conflict")
	}
	if !ItemTypeTransport.HasDateConflicts() || !ItemTypeCar.HasDateConflicts() {
		t.Fatalf("cars and transport block dates")
	}
}

func TestTransportServiceTypeExtraDays(t *testing.T) {
	tests := map[TransportServiceType]int{
		ServiceDayTour:          0,
		ServiceOvernight:        1,
		ServiceThreeDayTwoNight: 2,
		ServiceDropAndPick:      0,
	}
	for svc, want := range tests {
		if got := svc.ExtraDays(); got != want {
			t.Fatalf("%s: expected %d extra days got %d", svc, want, got)
		}
	}
	if got, err := ParseTransportServiceType("day tour"); err != nil || got != ServiceDayTour {
		t.Fatalf("expected case-insensitive parse, got %q err=%v", got, err)
	}
}

func TestBookingStatusTransitions(t *testing.T) {
	if !BookingStatusPending.CanTransitionTo(BookingStatusConfirmed) {
		t.Fatalf("pending -> confirmed should be allowed")
	}
	if BookingStatusRejected.CanTransitionTo(BookingStatusConfirmed) {
		t.Fatalf("rejected is terminal")
	}
	if BookingStatusConfirmed.CanTransitionTo(BookingStatusPending) {
		t.Fatalf("confirmed cannot go back to pending")
	}
	if BookingStatusPending.CanTransitionTo(BookingStatusExpired) {
		t.Fatalf("staff cannot expire a booking by hand")
	}
	if BookingStatusCancelled.HoldsDates() || !BookingStatusConfirmed.HoldsDates() {
		t.Fatalf("unexpected date holding semantics")
	}
}

func TestParsePaymentOptionDefaultsToFull(t *testing.T) {
	got, err := ParsePaymentOption("")
	if err != nil || got != PaymentOptionFull {
		t.Fatalf("expected full, got %q err=%v", got, err)
	}
	if _, err := ParsePaymentOption("installments"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseOutboxDLQErrorReason(t *testing.T) {
	got, err := ParseOutboxDLQErrorReason("invalid_payload")
	if err != nil || got != OutboxDLQReasonInvalidPayload {
		t.Fatalf("expected invalid_payload, got %q (%v)", got, err)
	}
	if _, err := ParseOutboxDLQErrorReason("timeout"); err == nil {
		t.Fatalf("expected error for unknown reason")
	}
}

func TestNotificationTypes(t *testing.T) {
	if !NotificationTypeBookingReview.IsValid() || NotificationType("market_update").IsValid() {
		t.Fatalf("unexpected notification type validity")
	}
	if _, err := ParseNotificationType("booking_expired"); err != nil {
		t.Fatalf("parse booking_expired: %v", err)
	}
}
