package reconciliation_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	infraprovider "github.com/doemais/marketplace/infra/provider"
	"github.com/doemais/marketplace/internal/fixtures"
	donationdomain "github.com/doemais/marketplace/pkg/domain/donation"
	"github.com/doemais/marketplace/pkg/money"
	"github.com/doemais/marketplace/pkg/service/reconciliation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	svc    *reconciliation.Service
	repo   *fixtures.MemoryDonationRepository
	events *fixtures.MemoryWebhookEventLog
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	repo := fixtures.NewMemoryDonationRepository()
	events := &fixtures.MemoryWebhookEventLog{}
	gateway := infraprovider.NewMockGateway(infraprovider.NewMockStore())
	return &env{
		svc:    reconciliation.New(repo, events, gateway, logger),
		repo:   repo,
		events: events,
	}
}

// seed persists a donation in the given status with a gateway reference.
func (e *env) seed(t *testing.T, status donationdomain.Status, paymentID string) *donationdomain.Donation {
	t.Helper()
	d := &donationdomain.Donation{
		OrganizationID: uuid.New(),
		Amount:         money.Must(50),
		Type:           donationdomain.TypeSingle,
		DonorName:      "Maria Silva",
		DonorEmail:     "maria@example.com",
		Status:         status,
		PaymentID:      paymentID,
	}
	require.NoError(t, e.repo.Create(context.Background(), d))
	return d
}

func notification(ref, status string) []byte {
	return fmt.Appendf(nil,
		`{"type":"payment","action":"payment.updated","data":{"id":%q,"status":%q}}`,
		ref, status,
	)
}

func TestService_Process_Approves(t *testing.T) {
	e := newEnv(t)
	d := e.seed(t, donationdomain.StatusProcessing, "pay_1")

	err := e.svc.Process(context.Background(), notification("pay_1", "approved"), "")
	require.NoError(t, err)

	stored, err := e.repo.FindByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, donationdomain.StatusApproved, stored.Status)
	assert.Equal(t, "approved", stored.GatewayStatus)
	assert.Len(t, e.events.Events, 1, "every received notification is audited")
}

func TestService_Process_Idempotent(t *testing.T) {
	e := newEnv(t)
	d := e.seed(t, donationdomain.StatusProcessing, "pay_1")

	payload := notification("pay_1", "approved")
	require.NoError(t, e.svc.Process(context.Background(), payload, ""))
	callsAfterFirst := e.repo.UpdateCalls

	// Processing the same notification again must be a no-op.
	require.NoError(t, e.svc.Process(context.Background(), payload, ""))
	assert.Equal(t, callsAfterFirst, e.repo.UpdateCalls,
		"a duplicate delivery must not touch the record")

	stored, err := e.repo.FindByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, donationdomain.StatusApproved, stored.Status)
}

func TestService_Process_FirstTerminalWins(t *testing.T) {
	e := newEnv(t)
	d := e.seed(t, donationdomain.StatusProcessing, "pay_1")

	require.NoError(t, e.svc.Process(context.Background(), notification("pay_1", "rejected"), ""))

	// A later, contradicting terminal notification is ignored.
	require.NoError(t, e.svc.Process(context.Background(), notification("pay_1", "approved"), ""))

	stored, err := e.repo.FindByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, donationdomain.StatusRejected, stored.Status,
		"the first terminal transition wins")
}

// staleReadRepo serves reads from a snapshot taken before a concurrent
// delivery settled the record, reproducing the window between a webhook
// handler's read and its write.
type staleReadRepo struct {
	*fixtures.MemoryDonationRepository
	staleStatus donationdomain.Status
}

func (r *staleReadRepo) FindByGatewayRef(
	ctx context.Context,
	ref string,
) (*donationdomain.Donation, error) {
	d, err := r.MemoryDonationRepository.FindByGatewayRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	d.Status = r.staleStatus
	return d, nil
}

func TestService_Process_ConcurrentConflictingDeliveries(t *testing.T) {
	e := newEnv(t)
	d := e.seed(t, donationdomain.StatusProcessing, "pay_1")

	// Settle the donation as rejected first.
	require.NoError(t, e.svc.Process(context.Background(), notification("pay_1", "rejected"), ""))

	// A racing approval delivery read the record while it was still
	// processing, so its guards all pass. The conditional write must
	// still lose against the settled row.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	stale := &staleReadRepo{
		MemoryDonationRepository: e.repo,
		staleStatus:              donationdomain.StatusProcessing,
	}
	racing := reconciliation.New(stale, e.events,
		infraprovider.NewMockGateway(infraprovider.NewMockStore()), logger)
	require.NoError(t, racing.Process(context.Background(), notification("pay_1", "approved"), ""))

	stored, err := e.repo.FindByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, donationdomain.StatusRejected, stored.Status,
		"a delivery that raced on a stale read must not overwrite settled state")
	assert.Equal(t, "rejected", stored.GatewayStatus)
}

func TestService_Process_ApprovedIsNeverOverwritten(t *testing.T) {
	e := newEnv(t)
	d := e.seed(t, donationdomain.StatusApproved, "pay_1")

	require.NoError(t, e.svc.Process(context.Background(), notification("pay_1", "cancelled"), ""))

	stored, err := e.repo.FindByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, donationdomain.StatusApproved, stored.Status,
		"webhooks never move a settled donation; explicit cancellation is a separate path")
}

func TestService_Process_CancelledWhileProcessingRejects(t *testing.T) {
	e := newEnv(t)
	d := e.seed(t, donationdomain.StatusProcessing, "pay_1")

	require.NoError(t, e.svc.Process(context.Background(), notification("pay_1", "cancelled"), ""))

	stored, err := e.repo.FindByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, donationdomain.StatusRejected, stored.Status)
}

func TestService_Process_PendingUpdatesGatewayStatusOnly(t *testing.T) {
	e := newEnv(t)
	d := e.seed(t, donationdomain.StatusProcessing, "pay_1")

	require.NoError(t, e.svc.Process(context.Background(), notification("pay_1", "in_process"), ""))

	stored, err := e.repo.FindByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, donationdomain.StatusProcessing, stored.Status)
	assert.Equal(t, "in_process", stored.GatewayStatus)
}

func TestService_Process_UnknownReferenceIsAcknowledged(t *testing.T) {
	e := newEnv(t)

	err := e.svc.Process(context.Background(), notification("pay_unknown", "approved"), "")
	require.NoError(t, err, "unknown references are not errors")
	assert.Zero(t, e.repo.UpdateCalls)
	assert.Len(t, e.events.Events, 1, "unknown notifications are still audited")
}

func TestService_Process_MalformedPayload(t *testing.T) {
	e := newEnv(t)

	err := e.svc.Process(context.Background(), []byte("not json"), "")
	require.Error(t, err)
	assert.Zero(t, e.repo.UpdateCalls)
}

func TestService_Process_AuditFailureDoesNotBlockReconciliation(t *testing.T) {
	e := newEnv(t)
	d := e.seed(t, donationdomain.StatusProcessing, "pay_1")
	e.events.RecordErr = assert.AnError

	require.NoError(t, e.svc.Process(context.Background(), notification("pay_1", "approved"), ""))

	stored, err := e.repo.FindByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, donationdomain.StatusApproved, stored.Status)
}
