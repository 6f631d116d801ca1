package provider

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mstgnz/paybridge/infra/logger"
)

// RedirectPaymentRequest starts a wallet payment the payer approves
// off-site
type RedirectPaymentRequest struct {
	PayeeEmail       string     `json:"payeeEmail" validate:"required,email"`
	Items            []LineItem `json:"items" validate:"required,min=1,dive"`
	Total            int64      `json:"total" validate:"gt=0"`
	Currency         string     `json:"currency" validate:"currency"`
	InvoiceReference string     `json:"invoiceReference" validate:"required"`
	Description      string     `json:"description,omitempty"`
	ReturnURL        string     `json:"returnUrl" validate:"required,url"`
	CancelURL        string     `json:"cancelUrl" validate:"required,url"`
	IdempotencyKey   string     `json:"idempotencyKey,omitempty"`
}

// RedirectPaymentStart is handed back to the caller, who redirects the
// payer to ApprovalURL
type RedirectPaymentStart struct {
	IntentID         string      `json:"intentId"`
	ApprovalURL      string      `json:"approvalUrl"`
	InvoiceReference string      `json:"invoiceReference"`
	State            IntentState `json:"state"`
}

// RedirectPaymentResult is the outcome of completing a redirect payment.
// On failure it is still returned together with the error so callers learn
// the invoice reference.
type RedirectPaymentResult struct {
	IntentID         string        `json:"intentId"`
	State            IntentState   `json:"state"`
	InvoiceReference string        `json:"invoiceReference"`
	ChargeID         string        `json:"chargeId,omitempty"`
	Charge           *ChargeResult `json:"charge,omitempty"`
}

// TransactionService runs charges, refunds and the redirect handshake
type TransactionService struct {
	charger  Charger
	refunder Refunder
	wallet   RedirectPayments
	r        *runner
}

// NewTransactionService creates the transaction orchestrator. Any
// capability may be nil; operations needing it then fail with
// InvalidRequest.
func NewTransactionService(charger Charger, refunder Refunder, wallet RedirectPayments, opts Options) *TransactionService {
	return &TransactionService{
		charger:  charger,
		refunder: refunder,
		wallet:   wallet,
		r:        newRunner(opts),
	}
}

// Charge performs a one-shot card charge. The amount is never altered.
func (s *TransactionService) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	const op = "charge"
	if s.charger == nil {
		return nil, unsupported(op, "card charges")
	}

	req.Currency = NormalizeCurrency(req.Currency)
	if err := validateStruct(op, req); err != nil {
		return nil, err
	}
	if req.ApplicationFee > 0 && req.DestinationAccount == "" {
		return nil, InvalidRequestf(op, "application fee requires a destination account")
	}
	if req.ApplicationFee > req.Amount {
		return nil, InvalidRequestf(op, "application fee %d exceeds amount %d", req.ApplicationFee, req.Amount)
	}
	req.IdempotencyKey = s.r.idempotencyKey(req.IdempotencyKey)

	res, err := call(ctx, s.r, s.charger.Name(), op, req, true, func(ctx context.Context) (*ChargeResult, error) {
		return s.charger.ChargeCard(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("charge succeeded", logger.LogContext{
		Provider: s.charger.Name(),
		Fields:   map[string]any{"charge_id": res.ChargeID, "amount": res.Amount, "currency": res.Currency},
	})
	s.r.publish(ctx, EventChargeSucceeded, res)

	return res, nil
}

// Refund refunds all or part of a charge
func (s *TransactionService) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	const op = "refund"
	if s.refunder == nil {
		return nil, unsupported(op, "refunds")
	}

	if req.Reason == "" {
		req.Reason = ReasonRequestedByCustomer
	}
	if err := validateStruct(op, req); err != nil {
		return nil, err
	}
	req.IdempotencyKey = s.r.idempotencyKey(req.IdempotencyKey)

	res, err := call(ctx, s.r, s.refunder.Name(), op, req, true, func(ctx context.Context) (*RefundResult, error) {
		return s.refunder.Refund(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("refund succeeded", logger.LogContext{
		Provider: s.refunder.Name(),
		Fields:   map[string]any{"refund_id": res.RefundID, "charge_id": res.ChargeID, "amount": res.Amount},
	})
	s.r.publish(ctx, EventRefundSucceeded, res)

	return res, nil
}

// BeginRedirectPayment creates an approval-pending wallet payment and
// records it as awaiting payer confirmation
func (s *TransactionService) BeginRedirectPayment(ctx context.Context, req RedirectPaymentRequest) (*RedirectPaymentStart, error) {
	const op = "begin_redirect_payment"
	if s.wallet == nil {
		return nil, unsupported(op, "redirect payments")
	}

	req.Currency = NormalizeCurrency(req.Currency)
	if err := validateStruct(op, req); err != nil {
		return nil, err
	}

	items := make([]LineItem, len(req.Items))
	sum := decimal.Zero
	for i, item := range req.Items {
		if item.Currency == "" {
			item.Currency = req.Currency
		}
		item.Currency = NormalizeCurrency(item.Currency)
		if item.Currency != req.Currency {
			return nil, InvalidRequestf(op, "line item '%s' is in %s but the total is in %s", item.Name, item.Currency, req.Currency)
		}
		items[i] = item
		sum = sum.Add(decimal.NewFromInt(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if !sum.Equal(decimal.NewFromInt(req.Total)) {
		return nil, InvalidRequestf(op, "line items sum to %s but total is %d", sum.String(), req.Total)
	}

	spec := PendingPaymentSpec{
		PayeeEmail:       req.PayeeEmail,
		Items:            items,
		Total:            Money{Amount: req.Total, Currency: req.Currency},
		InvoiceReference: req.InvoiceReference,
		Description:      req.Description,
		ReturnURL:        req.ReturnURL,
		CancelURL:        req.CancelURL,
	}
	key := s.r.idempotencyKey(req.IdempotencyKey)
	name := s.wallet.Name()

	created, err := call(ctx, s.r, name, "create_pending_payment", spec, true, func(ctx context.Context) (*PendingPaymentCreated, error) {
		return s.wallet.CreatePendingPayment(ctx, spec, key)
	})
	if err != nil {
		return nil, err
	}

	now := s.r.opts.Now()
	record := &PendingPayment{
		IntentID:         created.IntentID,
		Provider:         name,
		ApprovalURL:      created.ApprovalURL,
		PayeeEmail:       req.PayeeEmail,
		InvoiceReference: req.InvoiceReference,
		Total:            spec.Total,
		State:            IntentAwaitingPayerConfirmation,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.r.opts.Intents.Save(ctx, record); err != nil {
		return nil, withOp(err, op, name)
	}

	logger.Info("redirect payment created", logger.LogContext{
		Provider: name,
		Fields:   map[string]any{"intent_id": record.IntentID, "invoice": record.InvoiceReference},
	})
	s.r.publish(ctx, EventRedirectCreated, record)

	return &RedirectPaymentStart{
		IntentID:         record.IntentID,
		ApprovalURL:      record.ApprovalURL,
		InvoiceReference: record.InvoiceReference,
		State:            record.State,
	}, nil
}

// CompleteRedirectPayment executes an approved wallet payment. A pending
// payment is consumed once: completing a terminal or executing intent
// fails with Conflict before any provider call.
//
// When the payment executed but its completed state cannot be recorded,
// the result is returned together with the store error. A failed execution
// whose state cannot be recorded only logs the store error. Either way the
// intent stays executing and later completions fail with Conflict, so the
// caller must reconcile it from the returned result.
func (s *TransactionService) CompleteRedirectPayment(ctx context.Context, intentID, payerID string) (*RedirectPaymentResult, error) {
	const op = "complete_redirect_payment"
	if s.wallet == nil {
		return nil, unsupported(op, "redirect payments")
	}
	if intentID == "" {
		return nil, InvalidRequestf(op, "intent id is required")
	}
	if payerID == "" {
		return nil, InvalidRequestf(op, "payer confirmation is required")
	}
	name := s.wallet.Name()

	record, err := s.r.opts.Intents.Transition(ctx, intentID,
		[]IntentState{IntentCreated, IntentAwaitingPayerConfirmation}, IntentExecuting, nil)
	if err != nil {
		if KindOf(err) != KindNotFound {
			return nil, withOp(err, op, name)
		}
		record, err = s.adoptIntent(ctx, intentID)
		if err != nil {
			return nil, err
		}
	}

	if record.InvoiceReference == "" {
		details, err := call(ctx, s.r, name, "lookup_pending_payment", intentID, true, func(ctx context.Context) (*PendingPaymentDetails, error) {
			return s.wallet.LookupPendingPayment(ctx, intentID)
		})
		if err == nil {
			record.InvoiceReference = details.InvoiceReference
		}
	}

	key := "execute-" + intentID
	charge, execErr := call(ctx, s.r, name, "execute_pending_payment", map[string]string{"intentId": intentID, "payerId": payerID}, true,
		func(ctx context.Context) (*ChargeResult, error) {
			return s.wallet.ExecutePendingPayment(ctx, intentID, payerID, key)
		})

	if execErr != nil {
		invoice := record.InvoiceReference
		if _, err := s.r.opts.Intents.Transition(ctx, intentID, []IntentState{IntentExecuting}, IntentFailed, func(p *PendingPayment) {
			p.InvoiceReference = invoice
			p.FailureKind = KindOf(execErr)
			p.FailureMessage = execErr.Error()
		}); err != nil {
			logger.Error("failed to record redirect failure", err, logger.LogContext{
				Provider: name,
				Fields:   map[string]any{"intent_id": intentID},
			})
		}

		result := &RedirectPaymentResult{IntentID: intentID, State: IntentFailed, InvoiceReference: invoice}
		s.r.publish(ctx, EventRedirectFailed, result)
		return result, execErr
	}

	var storeErr error
	invoice := record.InvoiceReference
	if _, err := s.r.opts.Intents.Transition(ctx, intentID, []IntentState{IntentExecuting}, IntentCompleted, func(p *PendingPayment) {
		p.InvoiceReference = invoice
		p.ChargeID = charge.ChargeID
	}); err != nil {
		logger.Error("failed to record redirect completion", err, logger.LogContext{
			Provider: name,
			Fields:   map[string]any{"intent_id": intentID, "charge_id": charge.ChargeID},
		})
		storeErr = withOp(err, op, name)
	}

	result := &RedirectPaymentResult{
		IntentID:         intentID,
		State:            IntentCompleted,
		InvoiceReference: invoice,
		ChargeID:         charge.ChargeID,
		Charge:           charge,
	}
	logger.Info("redirect payment completed", logger.LogContext{
		Provider: name,
		Fields:   map[string]any{"intent_id": intentID, "charge_id": charge.ChargeID, "invoice": invoice},
	})
	s.r.publish(ctx, EventRedirectCompleted, result)

	return result, storeErr
}

// adoptIntent builds a local record for a pending payment this process did
// not create, using the provider's view of it
func (s *TransactionService) adoptIntent(ctx context.Context, intentID string) (*PendingPayment, error) {
	const op = "complete_redirect_payment"
	name := s.wallet.Name()

	details, err := call(ctx, s.r, name, "lookup_pending_payment", intentID, true, func(ctx context.Context) (*PendingPaymentDetails, error) {
		return s.wallet.LookupPendingPayment(ctx, intentID)
	})
	if err != nil {
		return nil, err
	}

	now := s.r.opts.Now()
	record := &PendingPayment{
		IntentID:         intentID,
		Provider:         name,
		InvoiceReference: details.InvoiceReference,
		Total:            details.Total,
		State:            details.State,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if record.State == "" {
		record.State = IntentAwaitingPayerConfirmation
	}
	if err := CheckTransition(record, []IntentState{IntentCreated, IntentAwaitingPayerConfirmation}); err != nil {
		return nil, withOp(err, op, name)
	}

	record.State = IntentExecuting
	if err := s.r.opts.Intents.Save(ctx, record); err != nil {
		return nil, withOp(err, op, name)
	}
	return record, nil
}

// GetRedirectPayment returns the recorded state of a redirect payment
func (s *TransactionService) GetRedirectPayment(ctx context.Context, intentID string) (*PendingPayment, error) {
	if intentID == "" {
		return nil, InvalidRequestf("get_redirect_payment", "intent id is required")
	}
	return s.r.opts.Intents.Get(ctx, intentID)
}
