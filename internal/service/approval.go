package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/salonhub/salon-booking-platform/internal/model"
	"github.com/salonhub/salon-booking-platform/internal/payment"
	"github.com/salonhub/salon-booking-platform/internal/queue"
	"github.com/salonhub/salon-booking-platform/internal/repository"
	"github.com/salonhub/salon-booking-platform/internal/token"
)

// ApprovalService runs the vendor onboarding state machine:
// DRAFT → PENDING → APPROVED → PAYMENT_PENDING → ACTIVE, with
// REJECTED as the other terminal state.  Every transition is a
// conditional update plus an audit row in one transaction, so
// concurrent admins cannot double-decide a request and the trail
// always matches the state.
type ApprovalService struct {
	tx          repository.TxRunner
	vendors     VendorStore
	salons      SalonStore
	ledger      LedgerStore
	payments    PaymentStore
	users       UserStore
	settings    SettingsStore
	processor   payment.ProcessorClient
	events      EventPublisher
	tokenSecret string
	now         func() time.Time
}

// NewApprovalService wires an ApprovalService.  tokenSecret signs
// activation tokens.
func NewApprovalService(tx repository.TxRunner, vendors VendorStore, salons SalonStore,
	ledger LedgerStore, payments PaymentStore, users UserStore, settings SettingsStore,
	processor payment.ProcessorClient, events EventPublisher, tokenSecret string) *ApprovalService {
	return &ApprovalService{
		tx:          tx,
		vendors:     vendors,
		salons:      salons,
		ledger:      ledger,
		payments:    payments,
		users:       users,
		settings:    settings,
		processor:   processor,
		events:      events,
		tokenSecret: tokenSecret,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SubmitInput carries a field agent's onboarding submission.
type SubmitInput struct {
	OwnerEmail      string
	BusinessName    string
	BusinessAddress *string
	BusinessPhone   *string
}

// Submit records a new vendor request and moves it straight to
// PENDING, bumping the agent's submission counter.
func (s *ApprovalService) Submit(ctx context.Context, agentID uint64, in SubmitInput) (*model.VendorRequest, error) {
	in.OwnerEmail = strings.ToLower(strings.TrimSpace(in.OwnerEmail))
	in.BusinessName = strings.TrimSpace(in.BusinessName)
	if in.OwnerEmail == "" || !strings.Contains(in.OwnerEmail, "@") {
		return nil, Validationf("valid owner_email is required")
	}
	if in.BusinessName == "" {
		return nil, Validationf("business_name is required")
	}
	req := &model.VendorRequest{
		AgentID:         agentID,
		OwnerEmail:      in.OwnerEmail,
		BusinessName:    in.BusinessName,
		BusinessAddress: in.BusinessAddress,
		BusinessPhone:   in.BusinessPhone,
	}
	if err := s.vendors.Create(ctx, req); err != nil {
		return nil, err
	}
	err := s.tx.InTx(ctx, func(tx *sql.Tx) error {
		took, err := s.vendors.TransitionTx(ctx, tx, req.ID, model.VendorDraft, model.VendorPending, agentID, nil)
		if err != nil {
			return err
		}
		if !took {
			return Conflictf("request already submitted")
		}
		return s.ledger.BumpCounterTx(ctx, tx, agentID, repository.CounterSubmitted)
	})
	if err != nil {
		return nil, err
	}
	req.Status = model.VendorPending
	return req, nil
}

// ApproveResult is what an approval produces: the updated request,
// the salon created for it, and the activation token to hand to the
// owner.
type ApproveResult struct {
	Request         *model.VendorRequest
	Salon           *model.Salon
	ActivationToken string
}

// Approve decides a PENDING request.  In one transaction it moves the
// request through APPROVED to PAYMENT_PENDING, creates the (inactive)
// salon for the registered owner, and credits the submitting agent's
// score — so an approval can never exist without its salon or its
// ledger entry.  The activation token is issued after commit.
func (s *ApprovalService) Approve(ctx context.Context, adminID, requestID uint64) (*ApproveResult, error) {
	cfg, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var (
		req   *model.VendorRequest
		salon *model.Salon
	)
	err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		req, err = s.vendors.GetByIDTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != model.VendorPending {
			return Conflictf("request is %s, not PENDING", req.Status)
		}
		owner, err := s.users.GetByEmail(ctx, req.OwnerEmail)
		if err == sql.ErrNoRows {
			return Validationf("owner %s has no account; they must register first", req.OwnerEmail)
		}
		if err != nil {
			return err
		}
		if owner.Role != model.RoleOwner {
			return Validationf("user %s is not registered as an owner", req.OwnerEmail)
		}
		took, err := s.vendors.TransitionTx(ctx, tx, req.ID, model.VendorPending, model.VendorApproved, adminID, nil)
		if err != nil {
			return err
		}
		if !took {
			return Conflictf("request already decided")
		}
		salon = &model.Salon{
			OwnerID: owner.ID,
			Name:    req.BusinessName,
			Address: req.BusinessAddress,
			Phone:   req.BusinessPhone,
		}
		if err := s.salons.CreateTx(ctx, tx, salon); err != nil {
			return err
		}
		if err := s.vendors.SetSalonTx(ctx, tx, req.ID, salon.ID); err != nil {
			return err
		}
		if took, err = s.vendors.TransitionTx(ctx, tx, req.ID, model.VendorApproved, model.VendorPaymentPending, adminID, nil); err != nil {
			return err
		} else if !took {
			return Integrityf("request %d left APPROVED mid-transaction", req.ID)
		}
		if err := s.ledger.CreditTx(ctx, tx, req.AgentID, cfg.RMScorePerApproval, "vendor request approved"); err != nil {
			return err
		}
		return s.ledger.BumpCounterTx(ctx, tx, req.AgentID, repository.CounterApproved)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Validationf("request not found")
	}
	if err != nil {
		return nil, err
	}
	req.Status = model.VendorPaymentPending
	req.SalonID = &salon.ID

	activation, err := token.NewActivation(s.tokenSecret, req.ID, cfg.ActivationTokenTTLDays)
	if err != nil {
		return nil, err
	}
	s.publishVendor(ctx, req, model.VendorPending, model.VendorPaymentPending)
	return &ApproveResult{Request: req, Salon: salon, ActivationToken: activation}, nil
}

// Reject decides a PENDING request with a mandatory reason.
func (s *ApprovalService) Reject(ctx context.Context, adminID, requestID uint64, reason string) (*model.VendorRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, Validationf("a rejection reason is required")
	}
	var req *model.VendorRequest
	err := s.tx.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		req, err = s.vendors.GetByIDTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != model.VendorPending {
			return Conflictf("request is %s, not PENDING", req.Status)
		}
		took, err := s.vendors.TransitionTx(ctx, tx, req.ID, model.VendorPending, model.VendorRejected, adminID, &reason)
		if err != nil {
			return err
		}
		if !took {
			return Conflictf("request already decided")
		}
		return s.ledger.BumpCounterTx(ctx, tx, req.AgentID, repository.CounterRejected)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Validationf("request not found")
	}
	if err != nil {
		return nil, err
	}
	req.Status = model.VendorRejected
	req.RejectionReason = &reason
	s.publishVendor(ctx, req, model.VendorPending, model.VendorRejected)
	return req, nil
}

// CreateRegistrationOrder opens (or returns the already-open) payment
// order for the registration fee of a PAYMENT_PENDING request.
// Re-requesting while an order is open returns the existing record
// instead of opening a second one.
func (s *ApprovalService) CreateRegistrationOrder(ctx context.Context, requestID uint64) (*model.PaymentRecord, error) {
	cfg, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	orderRef, err := repository.NewOrderRef()
	if err != nil {
		return nil, err
	}
	var (
		record   *model.PaymentRecord
		existing bool
	)
	err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		req, err := s.vendors.GetByIDTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != model.VendorPaymentPending {
			return Conflictf("request is %s, not PAYMENT_PENDING", req.Status)
		}
		record, err = s.payments.ActiveByEntityTx(ctx, tx, model.PurposeVendorRegistration, req.ID)
		if err != nil {
			return err
		}
		if record != nil {
			existing = true
			return nil
		}
		record = &model.PaymentRecord{
			Purpose:     model.PurposeVendorRegistration,
			EntityID:    req.ID,
			OrderRef:    orderRef,
			AmountCents: cfg.VendorRegistrationFeeCents,
		}
		return s.payments.CreateTx(ctx, tx, record)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Validationf("request not found")
	}
	if err != nil {
		return nil, err
	}
	if existing {
		return record, nil
	}

	externalOrderID, err := s.processor.CreateOrder(ctx, record.OrderRef, record.AmountCents)
	if errors.Is(err, payment.ErrAmbiguous) {
		return record, &ExternalError{Msg: "payment order outcome unknown", Ambiguous: true, Err: err}
	}
	if err != nil {
		_ = s.tx.InTx(ctx, func(tx *sql.Tx) error {
			_, err := s.payments.MarkFailedTx(ctx, tx, record.OrderRef)
			return err
		})
		return nil, &ExternalError{Msg: "payment order creation failed", Err: err}
	}
	record.ExternalOrderID = &externalOrderID
	if err := s.payments.SetExternalOrderID(ctx, record.OrderRef, externalOrderID); err != nil {
		return nil, err
	}
	return record, nil
}

// Activate consumes an activation token and brings the vendor live.
// It requires the request to be PAYMENT_PENDING with a VERIFIED
// registration payment and an unconsumed token; the conditional
// consume makes the token single-use even under concurrent clicks.
func (s *ApprovalService) Activate(ctx context.Context, activationToken string) (*model.VendorRequest, error) {
	requestID, err := token.ParseActivation(s.tokenSecret, activationToken)
	if errors.Is(err, token.ErrExpired) {
		return nil, Policyf("activation token expired")
	}
	if err != nil {
		return nil, Validationf("invalid activation token")
	}
	var req *model.VendorRequest
	err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		req, err = s.vendors.GetByIDTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		switch req.Status {
		case model.VendorActive:
			return Conflictf("vendor already active")
		case model.VendorPaymentPending:
		default:
			return Conflictf("request is %s, not PAYMENT_PENDING", req.Status)
		}
		rec, err := s.payments.ActiveByEntityTx(ctx, tx, model.PurposeVendorRegistration, req.ID)
		if err != nil {
			return err
		}
		if rec == nil || rec.Status != model.PaymentVerified {
			return Policyf("registration fee has not been paid")
		}
		took, err := s.vendors.ConsumeActivationTx(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		if !took {
			return Conflictf("activation token already used")
		}
		owner, err := s.users.GetByEmail(ctx, req.OwnerEmail)
		if err != nil {
			return err
		}
		if took, err = s.vendors.TransitionTx(ctx, tx, req.ID, model.VendorPaymentPending, model.VendorActive, owner.ID, nil); err != nil {
			return err
		} else if !took {
			return Conflictf("request already decided")
		}
		if req.SalonID == nil {
			return Integrityf("request %d reached activation without a salon", req.ID)
		}
		return s.salons.ActivateTx(ctx, tx, *req.SalonID)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Validationf("request not found")
	}
	if err != nil {
		return nil, err
	}
	req.Status = model.VendorActive
	s.publishVendor(ctx, req, model.VendorPaymentPending, model.VendorActive)
	return req, nil
}

// Get returns a request with its audit trail.  Agents see only their
// own requests; admins see all.
func (s *ApprovalService) Get(ctx context.Context, actorID uint64, actorRole string, requestID uint64) (*model.VendorRequest, []model.VendorTransition, error) {
	req, err := s.vendors.GetByID(ctx, requestID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, Validationf("request not found")
	}
	if err != nil {
		return nil, nil, err
	}
	if actorRole != model.RoleAdmin && req.AgentID != actorID {
		return nil, nil, Policyf("request belongs to another agent")
	}
	trail, err := s.vendors.Transitions(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	return req, trail, nil
}

// ListMine returns the agent's requests, newest first.
func (s *ApprovalService) ListMine(ctx context.Context, agentID uint64) ([]model.VendorRequest, error) {
	return s.vendors.ListByAgent(ctx, agentID)
}

// Queue returns requests awaiting a decision, oldest first.
func (s *ApprovalService) Queue(ctx context.Context) ([]model.VendorRequest, error) {
	return s.vendors.ListByStatus(ctx, model.VendorPending)
}

func (s *ApprovalService) publishVendor(ctx context.Context, req *model.VendorRequest, from, to string) {
	s.events.VendorStatus(ctx, queue.VendorStatusEvent{
		RequestID:  req.ID,
		AgentID:    req.AgentID,
		FromStatus: from,
		ToStatus:   to,
		SalonID:    req.SalonID,
		OccurredAt: s.now().Format(time.RFC3339),
	})
}
