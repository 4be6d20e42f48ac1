package model

import "testing"

func TestNextStatusOnMessage(t *testing.T) {
	tests := []struct {
		name       string
		cur        TicketStatus
		staffReply bool
		want       TicketStatus
	}{
		{name: "user message keeps open", cur: TicketStatusOpen, staffReply: false, want: TicketStatusOpen},
		{name: "staff reply moves open to in_progress", cur: TicketStatusOpen, staffReply: true, want: TicketStatusInProgress},
		{name: "user message reopens resolved", cur: TicketStatusResolved, staffReply: false, want: TicketStatusWaitingResponse},
		{name: "staff reply reopens resolved", cur: TicketStatusResolved, staffReply: true, want: TicketStatusWaitingResponse},
		{name: "user message reopens closed", cur: TicketStatusClosed, staffReply: false, want: TicketStatusWaitingResponse},
		{name: "staff reply reopens closed", cur: TicketStatusClosed, staffReply: true, want: TicketStatusWaitingResponse},
		{name: "in_progress unchanged", cur: TicketStatusInProgress, staffReply: true, want: TicketStatusInProgress},
		{name: "waiting_response unchanged", cur: TicketStatusWaitingResponse, staffReply: false, want: TicketStatusWaitingResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextStatusOnMessage(tt.cur, tt.staffReply); got != tt.want {
				t.Fatalf("NextStatusOnMessage(%q, %v) = %q, want %q", tt.cur, tt.staffReply, got, tt.want)
			}
		})
	}
}

func TestDerivePaymentStatus(t *testing.T) {
	tests := []struct {
		method string
		want   PaymentStatus
	}{
		{"card", PaymentStatusPaid},
		{"paypal", PaymentStatusPaid},
		{"cash_on_delivery", PaymentStatusPending},
		{"bank_transfer", PaymentStatusPending},
		{"", PaymentStatusPending},
	}

	for _, tt := range tests {
		if got := DerivePaymentStatus(tt.method); got != tt.want {
			t.Errorf("DerivePaymentStatus(%q) = %q, want %q", tt.method, got, tt.want)
		}
	}
}

func TestHasPermission(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	if !admin.HasPermission("anything") {
		t.Fatalf("admin must have every permission")
	}

	manager := &User{Role: RoleManager, Permissions: []string{"manage_products"}}
	if !manager.HasPermission("manage_products") {
		t.Fatalf("manager must have granted permission")
	}
	if manager.HasPermission("manage_orders") {
		t.Fatalf("manager must not have ungranted permission")
	}

	user := &User{Role: RoleUser}
	if user.HasPermission("manage_products") {
		t.Fatalf("plain user must have no permissions")
	}
}

func TestCanBeCancelled(t *testing.T) {
	cancellable := []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusShipped}
	for _, s := range cancellable {
		o := &Order{Status: s}
		if !o.CanBeCancelled() {
			t.Errorf("order in status %q should be cancellable", s)
		}
	}

	final := []OrderStatus{OrderStatusDelivered, OrderStatusCancelled}
	for _, s := range final {
		o := &Order{Status: s}
		if o.CanBeCancelled() {
			t.Errorf("order in status %q should not be cancellable", s)
		}
	}
}

func TestRoleIsStaff(t *testing.T) {
	if !RoleAdmin.IsStaff() || !RoleManager.IsStaff() {
		t.Fatalf("admin and manager are staff roles")
	}
	if RoleUser.IsStaff() {
		t.Fatalf("user is not a staff role")
	}
}
