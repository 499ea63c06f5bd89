package model

import "testing"

func TestPlan_IsValid(t *testing.T) {
	t.Parallel()

	valid := []Plan{PlanFree, PlanBasic, PlanPremium}
	for _, p := range valid {
		if !p.IsValid() {
			t.Errorf("expected plan %q to be valid", p)
		}
	}

	invalid := []Plan{"", "gold", "FREE", "premium "}
	for _, p := range invalid {
		if p.IsValid() {
			t.Errorf("expected plan %q to be invalid", p)
		}
	}
}

func TestPaymentMethod_IsValid(t *testing.T) {
	t.Parallel()

	valid := []PaymentMethod{PaymentMethodCard, PaymentMethodPayPal, PaymentMethodStripe, PaymentMethodBankTransfer}
	for _, m := range valid {
		if !m.IsValid() {
			t.Errorf("expected method %q to be valid", m)
		}
	}

	if PaymentMethod("bitcoin").IsValid() {
		t.Error("expected unknown method to be invalid")
	}
}

func TestAccount_HasDevice(t *testing.T) {
	t.Parallel()

	a := &Account{Devices: []string{"phone-1"}}

	if !a.HasDevice("phone-1") {
		t.Error("expected bound device to be found")
	}
	if a.HasDevice("laptop-9") {
		t.Error("expected unbound device to not be found")
	}
	if a.HasDevice("") {
		t.Error("expected empty device id to not be found")
	}

	empty := &Account{}
	if empty.HasDevice("phone-1") {
		t.Error("expected no match on empty device list")
	}
	if empty.DeviceCount() != 0 {
		t.Errorf("expected 0 devices, got %d", empty.DeviceCount())
	}
}
