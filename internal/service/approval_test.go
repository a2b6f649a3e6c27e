package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonhub/salon-booking-platform/internal/model"
	"github.com/salonhub/salon-booking-platform/internal/repository"
	"github.com/salonhub/salon-booking-platform/internal/token"
)

const activationSecret = "activation-secret"

type transitionRecord struct {
	from, to string
	actorID  uint64
	reason   *string
}

type approvalFixture struct {
	svc      *ApprovalService
	vendors  *mockVendors
	payments *mockPayments
	events   *recordedEvents

	request *model.VendorRequest

	transitions []transitionRecord
	credits     []int64
	counters    []string
	salonsMade  []*model.Salon
	activated   []uint64
	consumed    int
}

func newApprovalFixture(t *testing.T) *approvalFixture {
	t.Helper()
	f := &approvalFixture{events: &recordedEvents{}}
	f.request = &model.VendorRequest{
		ID:           11,
		AgentID:      5,
		OwnerEmail:   "owner@example.com",
		BusinessName: "Shear Genius",
		Status:       model.VendorPending,
	}
	f.vendors = &mockVendors{
		create: func(req *model.VendorRequest) error {
			req.ID = 11
			req.Status = model.VendorDraft
			return nil
		},
		transition: func(requestID uint64, from, to string, actorID uint64, reason *string) (bool, error) {
			if f.request.Status != from {
				return false, nil
			}
			f.request.Status = to
			f.transitions = append(f.transitions, transitionRecord{from: from, to: to, actorID: actorID, reason: reason})
			return true, nil
		},
		setSalon: func(requestID, salonID uint64) error {
			f.request.SalonID = &salonID
			return nil
		},
		consume: func(requestID uint64) (bool, error) {
			f.consumed++
			return f.consumed == 1, nil
		},
		getByID: func(id uint64) (*model.VendorRequest, error) {
			cp := *f.request
			return &cp, nil
		},
	}
	salons := &mockSalons{
		create: func(s *model.Salon) error {
			s.ID = 31
			f.salonsMade = append(f.salonsMade, s)
			return nil
		},
		activate: func(salonID uint64) error {
			f.activated = append(f.activated, salonID)
			return nil
		},
	}
	ledger := &mockLedger{
		credit: func(agentID uint64, delta int64, reason string) error {
			f.credits = append(f.credits, delta)
			return nil
		},
		bumpCounter: func(agentID uint64, counter string) error {
			f.counters = append(f.counters, counter)
			return nil
		},
	}
	f.payments = &mockPayments{
		activeByEntity: func(purpose string, entityID uint64) (*model.PaymentRecord, error) {
			return &model.PaymentRecord{
				Purpose:  model.PurposeVendorRegistration,
				EntityID: entityID,
				OrderRef: "ord_reg",
				Status:   model.PaymentVerified,
			}, nil
		},
		create: func(rec *model.PaymentRecord) error {
			rec.ID = 1
			return nil
		},
		markFailed: func(orderRef string) (bool, error) { return true, nil },
	}
	users := &mockUsers{
		getByEmail: func(email string) (model.User, error) {
			return model.User{ID: 21, Email: email, Role: model.RoleOwner, IsActive: true}, nil
		},
	}
	processor := &mockProcessor{
		createOrder: func(orderRef string, amountCents int64) (string, error) {
			return "ext_" + orderRef, nil
		},
	}
	f.svc = NewApprovalService(&stubTx{}, f.vendors, salons, ledger, f.payments, users,
		&mockSettings{cfg: defaultSettings()}, processor, f.events, activationSecret)
	return f
}

func TestSubmitMovesRequestToPending(t *testing.T) {
	f := newApprovalFixture(t)
	f.request.Status = model.VendorDraft

	req, err := f.svc.Submit(context.Background(), 5, SubmitInput{
		OwnerEmail:   "Owner@Example.com ",
		BusinessName: "Shear Genius",
	})
	require.NoError(t, err)

	assert.Equal(t, model.VendorPending, req.Status)
	assert.Equal(t, "owner@example.com", req.OwnerEmail)
	assert.Equal(t, []string{repository.CounterSubmitted}, f.counters)
}

func TestSubmitRequiresOwnerEmail(t *testing.T) {
	f := newApprovalFixture(t)

	_, err := f.svc.Submit(context.Background(), 5, SubmitInput{BusinessName: "Shear Genius"})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestApproveCreatesSalonCreditsAgentIssuesToken(t *testing.T) {
	f := newApprovalFixture(t)

	res, err := f.svc.Approve(context.Background(), 99, 11)
	require.NoError(t, err)

	assert.Equal(t, model.VendorPaymentPending, res.Request.Status)
	require.Len(t, f.salonsMade, 1)
	assert.Equal(t, uint64(21), f.salonsMade[0].OwnerID)
	assert.False(t, f.salonsMade[0].IsActive)

	// PENDING -> APPROVED -> PAYMENT_PENDING, both audited with the
	// deciding admin as actor.
	require.Len(t, f.transitions, 2)
	assert.Equal(t, model.VendorApproved, f.transitions[0].to)
	assert.Equal(t, model.VendorPaymentPending, f.transitions[1].to)
	assert.Equal(t, uint64(99), f.transitions[0].actorID)

	assert.Equal(t, []int64{10}, f.credits)
	assert.Equal(t, []string{repository.CounterApproved}, f.counters)

	id, err := token.ParseActivation(activationSecret, res.ActivationToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), id)

	require.Len(t, f.events.vendors, 1)
	assert.Equal(t, model.VendorPaymentPending, f.events.vendors[0].ToStatus)
}

func TestApproveAlreadyDecided(t *testing.T) {
	f := newApprovalFixture(t)
	f.request.Status = model.VendorRejected

	_, err := f.svc.Approve(context.Background(), 99, 11)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Empty(t, f.credits)
	assert.Empty(t, f.salonsMade)
}

func TestApproveUnregisteredOwner(t *testing.T) {
	f := newApprovalFixture(t)
	f.svc.users = &mockUsers{
		getByEmail: func(string) (model.User, error) {
			return model.User{}, sql.ErrNoRows
		},
	}

	_, err := f.svc.Approve(context.Background(), 99, 11)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestRejectRequiresReason(t *testing.T) {
	f := newApprovalFixture(t)

	_, err := f.svc.Reject(context.Background(), 99, 11, "   ")

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestRejectRecordsReasonAndCounter(t *testing.T) {
	f := newApprovalFixture(t)

	req, err := f.svc.Reject(context.Background(), 99, 11, "incomplete documents")
	require.NoError(t, err)

	assert.Equal(t, model.VendorRejected, req.Status)
	require.NotNil(t, req.RejectionReason)
	assert.Equal(t, "incomplete documents", *req.RejectionReason)
	assert.Equal(t, []string{repository.CounterRejected}, f.counters)
	require.Len(t, f.transitions, 1)
	require.NotNil(t, f.transitions[0].reason)
}

func TestActivateHappyPath(t *testing.T) {
	f := newApprovalFixture(t)
	salonID := uint64(31)
	f.request.Status = model.VendorPaymentPending
	f.request.SalonID = &salonID

	raw, err := token.NewActivation(activationSecret, 11, 7)
	require.NoError(t, err)

	req, err := f.svc.Activate(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, model.VendorActive, req.Status)
	assert.Equal(t, []uint64{31}, f.activated)
	require.Len(t, f.events.vendors, 1)
	assert.Equal(t, model.VendorActive, f.events.vendors[0].ToStatus)
}

func TestActivateWithoutVerifiedPayment(t *testing.T) {
	f := newApprovalFixture(t)
	salonID := uint64(31)
	f.request.Status = model.VendorPaymentPending
	f.request.SalonID = &salonID
	f.payments.activeByEntity = func(string, uint64) (*model.PaymentRecord, error) {
		return &model.PaymentRecord{Status: model.PaymentCreated}, nil
	}

	raw, err := token.NewActivation(activationSecret, 11, 7)
	require.NoError(t, err)

	_, err = f.svc.Activate(context.Background(), raw)

	var policy *PolicyError
	require.ErrorAs(t, err, &policy)
	assert.Empty(t, f.activated)
}

func TestActivateTokenSingleUse(t *testing.T) {
	f := newApprovalFixture(t)
	salonID := uint64(31)
	f.request.Status = model.VendorPaymentPending
	f.request.SalonID = &salonID

	raw, err := token.NewActivation(activationSecret, 11, 7)
	require.NoError(t, err)

	_, err = f.svc.Activate(context.Background(), raw)
	require.NoError(t, err)

	// A second click cannot consume the token again; the request is
	// already ACTIVE by then anyway.
	_, err = f.svc.Activate(context.Background(), raw)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Len(t, f.activated, 1)
}

func TestActivateExpiredToken(t *testing.T) {
	f := newApprovalFixture(t)

	raw, err := token.NewActivation(activationSecret, 11, -1)
	require.NoError(t, err)

	_, err = f.svc.Activate(context.Background(), raw)

	var policy *PolicyError
	require.ErrorAs(t, err, &policy)
}

func TestActivateGarbageToken(t *testing.T) {
	f := newApprovalFixture(t)

	_, err := f.svc.Activate(context.Background(), "not-a-token")

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestCreateRegistrationOrderIdempotent(t *testing.T) {
	f := newApprovalFixture(t)
	f.request.Status = model.VendorPaymentPending
	open := &model.PaymentRecord{
		ID:       4,
		Purpose:  model.PurposeVendorRegistration,
		EntityID: 11,
		OrderRef: "ord_open",
		Status:   model.PaymentCreated,
	}
	f.payments.activeByEntity = func(string, uint64) (*model.PaymentRecord, error) {
		return open, nil
	}
	processorCalled := false
	f.svc.processor = &mockProcessor{
		createOrder: func(string, int64) (string, error) {
			processorCalled = true
			return "ext", nil
		},
	}

	rec, err := f.svc.CreateRegistrationOrder(context.Background(), 11)
	require.NoError(t, err)

	assert.Equal(t, "ord_open", rec.OrderRef)
	assert.False(t, processorCalled)
}

func TestCreateRegistrationOrderUsesConfiguredFee(t *testing.T) {
	f := newApprovalFixture(t)
	f.request.Status = model.VendorPaymentPending
	f.payments.activeByEntity = func(string, uint64) (*model.PaymentRecord, error) {
		return nil, nil
	}

	rec, err := f.svc.CreateRegistrationOrder(context.Background(), 11)
	require.NoError(t, err)

	assert.Equal(t, int64(500000), rec.AmountCents)
	assert.Equal(t, model.PurposeVendorRegistration, rec.Purpose)
	require.NotNil(t, rec.ExternalOrderID)
}

func TestCreateRegistrationOrderWrongState(t *testing.T) {
	f := newApprovalFixture(t)

	_, err := f.svc.CreateRegistrationOrder(context.Background(), 11)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestGetHidesOtherAgentsRequests(t *testing.T) {
	f := newApprovalFixture(t)

	_, _, err := f.svc.Get(context.Background(), 6, model.RoleAgent, 11)

	var policy *PolicyError
	require.ErrorAs(t, err, &policy)
}

func TestGetAllowsAdmin(t *testing.T) {
	f := newApprovalFixture(t)
	f.vendors.transitions = func(requestID uint64) ([]model.VendorTransition, error) {
		return []model.VendorTransition{{RequestID: requestID, FromStatus: model.VendorDraft, ToStatus: model.VendorPending}}, nil
	}

	req, trail, err := f.svc.Get(context.Background(), 99, model.RoleAdmin, 11)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), req.ID)
	assert.Len(t, trail, 1)
}
