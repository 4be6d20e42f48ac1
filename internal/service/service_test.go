package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/repository"
)

type stubRepo struct {
	createdUser *model.User
	createErr   error

	userByEmail    *model.User
	userByEmailErr error

	userByID    *model.User
	userByIDErr error

	verifyEmailErr error

	product    *model.Product
	productErr error

	createdOrder   *model.Order
	createOrderErr error

	order    *model.Order
	orderErr error

	cancelledOrder *model.Order
	cancelErr      error

	updatedPaymentStatus model.PaymentStatus

	ticket    *model.Ticket
	ticketErr error

	addedMessageStatus model.TicketStatus
	addedMessage       model.TicketMessage

	logEntries []model.LogEntry
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) CreateUser(ctx context.Context, name, email string, passwordHash []byte, verificationToken string, tokenExpires time.Time) (*model.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if s.createdUser != nil {
		return s.createdUser, nil
	}
	return &model.User{ID: 1, Name: name, Email: email, PasswordHash: passwordHash, Role: model.RoleUser, IsActive: true}, nil
}

func (s *stubRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.userByEmail == nil && s.userByEmailErr == nil {
		return nil, repository.ErrUserNotFound
	}
	return s.userByEmail, s.userByEmailErr
}

func (s *stubRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.userByID, s.userByIDErr
}

func (s *stubRepo) ListUsers(ctx context.Context) ([]model.User, error) { return nil, nil }

func (s *stubRepo) UpdateUserProfile(ctx context.Context, id int64, name, email string) (*model.User, error) {
	return &model.User{ID: id, Name: name, Email: email}, nil
}

func (s *stubRepo) UpdateUserPassword(ctx context.Context, id int64, passwordHash []byte) error {
	return nil
}

func (s *stubRepo) UpdateUserRole(ctx context.Context, id int64, role model.Role, permissions []string) (*model.User, error) {
	return &model.User{ID: id, Role: role, Permissions: permissions}, nil
}

func (s *stubRepo) UpdateUserStatus(ctx context.Context, id int64, isActive bool) (*model.User, error) {
	return &model.User{ID: id, IsActive: isActive}, nil
}

func (s *stubRepo) DeleteUser(ctx context.Context, id int64) error { return nil }

func (s *stubRepo) VerifyEmail(ctx context.Context, token string) error { return s.verifyEmailErr }

func (s *stubRepo) ListAddresses(ctx context.Context, userID int64) ([]model.Address, error) {
	return nil, nil
}

func (s *stubRepo) AddAddress(ctx context.Context, userID int64, a model.Address) ([]model.Address, error) {
	return []model.Address{a}, nil
}

func (s *stubRepo) UpdateAddress(ctx context.Context, userID, addressID int64, a model.Address) ([]model.Address, error) {
	return []model.Address{a}, nil
}

func (s *stubRepo) DeleteAddress(ctx context.Context, userID, addressID int64) ([]model.Address, error) {
	return nil, nil
}

func (s *stubRepo) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	return &p, nil
}

func (s *stubRepo) GetProductByID(ctx context.Context, id int64) (*model.Product, error) {
	return s.product, s.productErr
}

func (s *stubRepo) ListProducts(ctx context.Context) ([]model.Product, error) { return nil, nil }

func (s *stubRepo) UpdateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	return &p, nil
}

func (s *stubRepo) DeleteProduct(ctx context.Context, id int64) error { return nil }

func (s *stubRepo) CreateOrder(ctx context.Context, o model.Order) (*model.Order, error) {
	if s.createOrderErr != nil {
		return nil, s.createOrderErr
	}
	if s.createdOrder != nil {
		return s.createdOrder, nil
	}
	o.ID = 1
	return &o, nil
}

func (s *stubRepo) GetOrderByID(ctx context.Context, id int64) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubRepo) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	return nil, nil
}

func (s *stubRepo) ListAllOrders(ctx context.Context) ([]model.Order, error) { return nil, nil }

func (s *stubRepo) CancelOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	return s.cancelledOrder, s.cancelErr
}

func (s *stubRepo) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus, paymentStatus model.PaymentStatus) (*model.Order, error) {
	s.updatedPaymentStatus = paymentStatus
	return &model.Order{ID: orderID, Status: status, PaymentStatus: paymentStatus}, nil
}

func (s *stubRepo) GetUserOrderStats(ctx context.Context, customerID int64) (*repository.UserOrderStats, error) {
	return &repository.UserOrderStats{}, nil
}

func (s *stubRepo) GetAdminStats(ctx context.Context) (*repository.AdminStats, error) {
	return &repository.AdminStats{}, nil
}

func (s *stubRepo) CreateTicket(ctx context.Context, t model.Ticket) (*model.Ticket, error) {
	t.ID = 1
	t.Number = "#000001"
	return &t, nil
}

func (s *stubRepo) GetTicketByID(ctx context.Context, id int64) (*model.Ticket, error) {
	return s.ticket, s.ticketErr
}

func (s *stubRepo) ListTickets(ctx context.Context, f repository.TicketFilter) ([]model.Ticket, error) {
	return nil, nil
}

func (s *stubRepo) AddTicketMessage(ctx context.Context, ticketID int64, m model.TicketMessage, newStatus model.TicketStatus) (*model.Ticket, error) {
	s.addedMessage = m
	s.addedMessageStatus = newStatus
	t := *s.ticket
	t.Status = newStatus
	t.Messages = append(t.Messages, m)
	return &t, nil
}

func (s *stubRepo) UpdateTicketStatus(ctx context.Context, ticketID int64, status model.TicketStatus) (*model.Ticket, error) {
	return &model.Ticket{ID: ticketID, Status: status}, nil
}

func (s *stubRepo) AssignTicket(ctx context.Context, ticketID, staffID int64) (*model.Ticket, error) {
	return &model.Ticket{ID: ticketID, AssignedTo: &staffID, Status: model.TicketStatusInProgress}, nil
}

func (s *stubRepo) GetTicketStats(ctx context.Context, userID *int64) (*repository.TicketStats, error) {
	return &repository.TicketStats{}, nil
}

func (s *stubRepo) CreateLogEntry(ctx context.Context, e model.LogEntry) error {
	s.logEntries = append(s.logEntries, e)
	return nil
}

func (s *stubRepo) ListLogs(ctx context.Context, f repository.LogFilter) ([]model.LogEntry, int64, error) {
	return nil, 0, nil
}

func (s *stubRepo) GetLogByID(ctx context.Context, id int64) (*model.LogEntry, error) {
	return nil, repository.ErrLogNotFound
}

func (s *stubRepo) GetLogStats(ctx context.Context, f repository.LogFilter) (*repository.LogStats, error) {
	return &repository.LogStats{}, nil
}

func (s *stubRepo) PurgeLogs(ctx context.Context, olderThanDays int) (int64, error) {
	return 0, nil
}

func hashFor(t *testing.T, password string) []byte {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return h
}

func TestRegisterUser_ReturnsVerificationToken(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	res, err := svc.RegisterUser(context.Background(), "Alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("RegisterUser error: %v", err)
	}
	if res.VerificationToken == "" {
		t.Fatalf("expected non-empty verification token")
	}
	if res.User.Email != "alice@example.com" {
		t.Fatalf("email = %q, want alice@example.com", res.User.Email)
	}
}

func TestRegisterUser_PropagatesDuplicateError(t *testing.T) {
	repo := &stubRepo{createErr: repository.ErrUserExists}
	svc := NewService(repo)

	_, err := svc.RegisterUser(context.Background(), "Alice", "alice@example.com", "secret1")
	if !errors.Is(err, repository.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthenticateUser_WrongPassword(t *testing.T) {
	repo := &stubRepo{
		userByEmail: &model.User{
			ID:           1,
			Email:        "user@example.com",
			PasswordHash: hashFor(t, "correct"),
			IsActive:     true,
		},
	}
	svc := NewService(repo)

	_, err := svc.AuthenticateUser(context.Background(), "user@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(repo.logEntries) == 0 {
		t.Fatalf("expected failed login to be audited")
	}
}

func TestAuthenticateUser_UnknownEmail(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	_, err := svc.AuthenticateUser(context.Background(), "nobody@example.com", "pass")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateUser_DeactivatedAccount(t *testing.T) {
	repo := &stubRepo{
		userByEmail: &model.User{
			ID:           1,
			Email:        "user@example.com",
			PasswordHash: hashFor(t, "correct"),
			IsActive:     false,
		},
	}
	svc := NewService(repo)

	_, err := svc.AuthenticateUser(context.Background(), "user@example.com", "correct")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for deactivated account, got %v", err)
	}
}

func TestChangePassword_VerifiesCurrent(t *testing.T) {
	repo := &stubRepo{
		userByID: &model.User{
			ID:           1,
			PasswordHash: hashFor(t, "oldpass"),
		},
	}
	svc := NewService(repo)

	if err := svc.ChangePassword(context.Background(), 1, "wrong", "newpass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if err := svc.ChangePassword(context.Background(), 1, "oldpass", "newpass1"); err != nil {
		t.Fatalf("ChangePassword error: %v", err)
	}
}

func TestPlaceOrder_InactiveProduct(t *testing.T) {
	repo := &stubRepo{
		product: &model.Product{ID: 1, Name: "Widget", Stock: 10, IsActive: false},
	}
	svc := NewService(repo)

	_, err := svc.PlaceOrder(context.Background(), 1, PlaceOrderInput{
		Items: []OrderItemInput{{ProductID: 1, Quantity: 1, PriceCents: 100}},
	})
	if !errors.Is(err, repository.ErrProductInactive) {
		t.Fatalf("expected ErrProductInactive, got %v", err)
	}
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	repo := &stubRepo{
		product: &model.Product{ID: 1, Name: "Widget", Stock: 2, IsActive: true},
	}
	svc := NewService(repo)

	_, err := svc.PlaceOrder(context.Background(), 1, PlaceOrderInput{
		Items: []OrderItemInput{{ProductID: 1, Quantity: 5, PriceCents: 100}},
	})
	if !errors.Is(err, repository.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestPlaceOrder_DerivesPaymentStatus(t *testing.T) {
	repo := &stubRepo{
		product: &model.Product{ID: 1, Name: "Widget", Stock: 10, IsActive: true},
	}
	svc := NewService(repo)

	order, err := svc.PlaceOrder(context.Background(), 1, PlaceOrderInput{
		Items:         []OrderItemInput{{ProductID: 1, Quantity: 1, PriceCents: 100}},
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}
	if order.PaymentStatus != model.PaymentStatusPaid {
		t.Fatalf("payment status = %q, want paid", order.PaymentStatus)
	}
	if order.Status != model.OrderStatusPending {
		t.Fatalf("status = %q, want pending", order.Status)
	}
}

func TestGetOrder_ForbiddenForStranger(t *testing.T) {
	repo := &stubRepo{
		order: &model.Order{ID: 1, CustomerID: 5},
	}
	svc := NewService(repo)

	stranger := &model.User{ID: 7, Role: model.RoleUser}
	if _, err := svc.GetOrder(context.Background(), 1, stranger); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	staff := &model.User{ID: 7, Role: model.RoleManager}
	if _, err := svc.GetOrder(context.Background(), 1, staff); err != nil {
		t.Fatalf("staff access error: %v", err)
	}
}

func TestCancelOrder_Rules(t *testing.T) {
	owner := &model.User{ID: 5, Role: model.RoleUser}

	repo := &stubRepo{
		order:          &model.Order{ID: 1, CustomerID: 5, Status: model.OrderStatusDelivered},
		cancelledOrder: &model.Order{ID: 1, CustomerID: 5, Status: model.OrderStatusCancelled},
	}
	svc := NewService(repo)

	if _, err := svc.CancelOrder(context.Background(), 1, owner); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for delivered order, got %v", err)
	}

	repo.order = &model.Order{ID: 1, CustomerID: 5, Status: model.OrderStatusPending}

	stranger := &model.User{ID: 9, Role: model.RoleAdmin}
	if _, err := svc.CancelOrder(context.Background(), 1, stranger); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for non-owner, got %v", err)
	}

	cancelled, err := svc.CancelOrder(context.Background(), 1, owner)
	if err != nil {
		t.Fatalf("CancelOrder error: %v", err)
	}
	if cancelled.Status != model.OrderStatusCancelled {
		t.Fatalf("status = %q, want cancelled", cancelled.Status)
	}
}

func TestCancelOrder_RaceFallback(t *testing.T) {
	owner := &model.User{ID: 5, Role: model.RoleUser}
	repo := &stubRepo{
		order:     &model.Order{ID: 1, CustomerID: 5, Status: model.OrderStatusPending},
		cancelErr: repository.ErrOrderNotCancellable,
	}
	svc := NewService(repo)

	if _, err := svc.CancelOrder(context.Background(), 1, owner); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on repo race, got %v", err)
	}
}

func TestCreateTicket_DefaultsPriority(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	ticket, err := svc.CreateTicket(context.Background(), 1, "billing", "", "subj", "desc")
	if err != nil {
		t.Fatalf("CreateTicket error: %v", err)
	}
	if ticket.Priority != model.TicketPriorityMedium {
		t.Fatalf("priority = %q, want medium", ticket.Priority)
	}
	if ticket.Status != model.TicketStatusOpen {
		t.Fatalf("status = %q, want open", ticket.Status)
	}
}

func TestAddTicketMessage_ReopensResolved(t *testing.T) {
	owner := &model.User{ID: 5, Role: model.RoleUser}
	repo := &stubRepo{
		ticket: &model.Ticket{ID: 1, UserID: 5, Status: model.TicketStatusResolved},
	}
	svc := NewService(repo)

	ticket, err := svc.AddTicketMessage(context.Background(), 1, owner, "still broken")
	if err != nil {
		t.Fatalf("AddTicketMessage error: %v", err)
	}
	if ticket.Status != model.TicketStatusWaitingResponse {
		t.Fatalf("status = %q, want waiting_response", ticket.Status)
	}
	if repo.addedMessage.SenderType != model.SenderTypeUser {
		t.Fatalf("senderType = %q, want user", repo.addedMessage.SenderType)
	}
}

func TestAddTicketMessage_ForbiddenForStranger(t *testing.T) {
	stranger := &model.User{ID: 9, Role: model.RoleUser}
	repo := &stubRepo{
		ticket: &model.Ticket{ID: 1, UserID: 5, Status: model.TicketStatusOpen},
	}
	svc := NewService(repo)

	if _, err := svc.AddTicketMessage(context.Background(), 1, stranger, "hi"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestReplyToTicket_MovesOpenToInProgress(t *testing.T) {
	admin := &model.User{ID: 2, Role: model.RoleAdmin}
	repo := &stubRepo{
		ticket: &model.Ticket{ID: 1, UserID: 5, Status: model.TicketStatusOpen},
	}
	svc := NewService(repo)

	ticket, err := svc.ReplyToTicket(context.Background(), 1, admin, "  looking into it  ")
	if err != nil {
		t.Fatalf("ReplyToTicket error: %v", err)
	}
	if ticket.Status != model.TicketStatusInProgress {
		t.Fatalf("status = %q, want in_progress", ticket.Status)
	}
	if repo.addedMessage.Message != "looking into it" {
		t.Fatalf("message = %q, want trimmed text", repo.addedMessage.Message)
	}
	if repo.addedMessage.SenderType != model.SenderTypeAdmin {
		t.Fatalf("senderType = %q, want admin", repo.addedMessage.SenderType)
	}
}

func TestUpdateOrderStatus_OmittedPaymentStatusPreserved(t *testing.T) {
	repo := &stubRepo{
		order: &model.Order{ID: 5, Status: model.OrderStatusProcessing, PaymentStatus: model.PaymentStatusPaid},
	}
	svc := NewService(repo)

	updated, err := svc.UpdateOrderStatus(context.Background(), 5, model.OrderStatusShipped, "")
	if err != nil {
		t.Fatalf("UpdateOrderStatus error: %v", err)
	}
	if repo.updatedPaymentStatus != model.PaymentStatusPaid {
		t.Fatalf("payment status sent to repo = %q, want paid", repo.updatedPaymentStatus)
	}
	if updated.PaymentStatus != model.PaymentStatusPaid {
		t.Fatalf("payment status = %q, want paid", updated.PaymentStatus)
	}
}

func TestUpdateOrderStatus_ExplicitPaymentStatus(t *testing.T) {
	repo := &stubRepo{
		order: &model.Order{ID: 5, Status: model.OrderStatusShipped, PaymentStatus: model.PaymentStatusPaid},
	}
	svc := NewService(repo)

	updated, err := svc.UpdateOrderStatus(context.Background(), 5, model.OrderStatusCancelled, model.PaymentStatusRefunded)
	if err != nil {
		t.Fatalf("UpdateOrderStatus error: %v", err)
	}
	if updated.PaymentStatus != model.PaymentStatusRefunded {
		t.Fatalf("payment status = %q, want refunded", updated.PaymentStatus)
	}
}

func TestStartLogRetention_BlocksUntilContextCancel(t *testing.T) {
	svc := NewService(&stubRepo{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartLogRetention(ctx, zap.NewNop(), 90)
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("StartLogRetention returned before context cancellation")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("StartLogRetention did not stop after context cancellation")
	}
}

func TestUpdateUserRole_Audited(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	actor := &model.User{ID: 1, Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin}
	_, err := svc.UpdateUserRole(context.Background(), actor, 7, model.RoleManager, []string{"manage_products"})
	if err != nil {
		t.Fatalf("UpdateUserRole error: %v", err)
	}
	if len(repo.logEntries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(repo.logEntries))
	}
	if repo.logEntries[0].Category != "security" {
		t.Fatalf("audit category = %q, want security", repo.logEntries[0].Category)
	}
}
