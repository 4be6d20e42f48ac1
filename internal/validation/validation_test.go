package validation

import (
	"testing"

	"github.com/mmeshcher/storefront-system/internal/model"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"a@b.co", true},
		{"first.last@sub.example.org", true},
		{"", false},
		{"plainaddress", false},
		{"@example.com", false},
		{"user@", false},
		{"user@example", false},
		{"user@@example.com", false},
		{"user@.com", false},
		{"user@example.", false},
	}

	for _, tt := range tests {
		if got := IsValidEmail(tt.email); got != tt.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestIsValidTicketCategory(t *testing.T) {
	for _, c := range model.TicketCategories {
		if !IsValidTicketCategory(c) {
			t.Errorf("IsValidTicketCategory(%q) = false, want true", c)
		}
	}
	if IsValidTicketCategory("spam") {
		t.Errorf("IsValidTicketCategory(\"spam\") = true, want false")
	}
	if IsValidTicketCategory("") {
		t.Errorf("IsValidTicketCategory(\"\") = true, want false")
	}
}

func TestIsValidTicketPriority(t *testing.T) {
	valid := []model.TicketPriority{
		model.TicketPriorityLow, model.TicketPriorityMedium,
		model.TicketPriorityHigh, model.TicketPriorityUrgent,
	}
	for _, p := range valid {
		if !IsValidTicketPriority(p) {
			t.Errorf("IsValidTicketPriority(%q) = false, want true", p)
		}
	}
	if IsValidTicketPriority("critical") {
		t.Errorf("IsValidTicketPriority(\"critical\") = true, want false")
	}
}

func TestIsValidOrderStatus(t *testing.T) {
	valid := []model.OrderStatus{
		model.OrderStatusPending, model.OrderStatusProcessing,
		model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled,
	}
	for _, s := range valid {
		if !IsValidOrderStatus(s) {
			t.Errorf("IsValidOrderStatus(%q) = false, want true", s)
		}
	}
	if IsValidOrderStatus("returned") {
		t.Errorf("IsValidOrderStatus(\"returned\") = true, want false")
	}
}

func TestIsValidRole(t *testing.T) {
	if !IsValidRole(model.RoleUser) || !IsValidRole(model.RoleManager) || !IsValidRole(model.RoleAdmin) {
		t.Errorf("expected user, manager and admin to be valid roles")
	}
	if IsValidRole("superadmin") {
		t.Errorf("IsValidRole(\"superadmin\") = true, want false")
	}
}
