package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/doemais/marketplace/pkg/domain"
	donationdomain "github.com/doemais/marketplace/pkg/domain/donation"
	"github.com/doemais/marketplace/pkg/dto"
	"github.com/doemais/marketplace/pkg/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func sampleDonation() *donationdomain.Donation {
	return &donationdomain.Donation{
		OrganizationID:   uuid.New(),
		OrganizationName: "Instituto Esperança",
		Amount:           money.Must(50),
		Type:             donationdomain.TypeSingle,
		DonorName:        "Maria Silva",
		DonorEmail:       "maria@example.com",
		Status:           donationdomain.StatusPending,
		Metadata:         map[string]string{"ip": "10.0.0.1"},
	}
}

func TestDonationRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := donationRepository{db: db}

	d := sampleDonation()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "donations" (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), d)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, d.ID, "Create should assign an id")
	assert.False(t, d.CreatedAt.IsZero())

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "donations" (.+)`).
		WillReturnError(errors.New("create error"))
	mock.ExpectRollback()
	err = repo.Create(context.Background(), sampleDonation())
	require.Error(t, err)
}

func TestDonationRepository_UpdateByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := donationRepository{db: db}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "donations"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	status := donationdomain.StatusProcessing
	err := repo.UpdateByID(context.Background(), uuid.New(), dto.DonationPatch{Status: &status})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDonationRepository_UpdateByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := donationRepository{db: db}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "donations"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status := donationdomain.StatusProcessing
	paymentID := "pay_123"
	err := repo.UpdateByID(context.Background(), uuid.New(), dto.DonationPatch{
		Status:    &status,
		PaymentID: &paymentID,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepository_TransitionStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := donationRepository{db: db}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "donations" SET (.+) WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status := donationdomain.StatusApproved
	err := repo.TransitionStatus(context.Background(), uuid.New(),
		donationdomain.StatusProcessing, dto.DonationPatch{Status: &status})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepository_TransitionStatus_Conflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := donationRepository{db: db}

	// Zero rows matched: the record no longer carries the observed status.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "donations" SET (.+) WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	status := donationdomain.StatusApproved
	err := repo.TransitionStatus(context.Background(), uuid.New(),
		donationdomain.StatusProcessing, dto.DonationPatch{Status: &status})
	require.ErrorIs(t, err, domain.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := donationRepository{db: db}

	mock.ExpectQuery(`SELECT \* FROM "donations"`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDonationModel_RoundTrip(t *testing.T) {
	d := sampleDonation()
	d.ID = uuid.New()
	d.PaymentID = "pay_123"
	d.GatewayStatus = "approved"
	d.Status = donationdomain.StatusApproved

	model, err := toModel(d)
	require.NoError(t, err)
	require.NotNil(t, model.PaymentID)
	assert.Equal(t, "pay_123", *model.PaymentID)
	assert.Nil(t, model.SubscriptionID)
	assert.Equal(t, int64(5000), model.AmountCentavos)

	back, err := toEntity(model)
	require.NoError(t, err)
	assert.Equal(t, d.ID, back.ID)
	assert.Equal(t, d.Amount.Centavos(), back.Amount.Centavos())
	assert.Equal(t, d.PaymentID, back.PaymentID)
	assert.Equal(t, d.Metadata, back.Metadata)
	assert.Equal(t, donationdomain.StatusApproved, back.Status)
}
