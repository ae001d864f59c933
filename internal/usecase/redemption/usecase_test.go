package redemption

import (
	"context"
	"testing"
	"time"

	"pawn-settlement/internal/adapter/repository/mysql"
	domainAction "pawn-settlement/internal/domain/action"
	domainContract "pawn-settlement/internal/domain/contract"
	"pawn-settlement/internal/domain/errs"
	domainRedemption "pawn-settlement/internal/domain/redemption"
	"pawn-settlement/internal/projection"
	"pawn-settlement/internal/testutil/dbtest"
	"pawn-settlement/internal/testutil/notifymock"
	"pawn-settlement/pkg/id"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	pawner    = "U-pawner"
	investor  = "U-investor"
	dropPoint = "DP-1"
)

var now = time.Date(2025, 1, 16, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	uc        *Usecase
	db        *gorm.DB
	contracts *mysql.ContractRepository
	notes     *notifymock.Recorder
	contract  *domainContract.Contract
}

// 10,000 at 1.5%/month from 2025-01-01: 75.00 interest on 2025-01-16.
func newFixture(t *testing.T, feeRate *decimal.Decimal) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	contracts := mysql.NewContractRepository(db)
	c := &domainContract.Contract{
		ContractID:          id.NewID32(),
		PawnerID:            pawner,
		InvestorID:          investor,
		DropPointID:         dropPoint,
		DropPointEmail:      "dp1@example.com",
		LoanPrincipalAmount: dec("10000"),
		InterestRate:        dec("1.5"),
		TermDays:            30,
		StartDate:           time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:             time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		Status:              domainContract.StatusActive,
		TotalAmount:         dec("10000"),
		PlatformFeeRate:     feeRate,
	}
	require.NoError(t, contracts.Create(context.Background(), c))

	notes := &notifymock.Recorder{}
	uc := NewUsecase(Deps{
		UoW:                 mysql.NewGormUoW(db),
		Redemptions:         mysql.NewRedemptionRepository(db),
		Notifier:            notes,
		Now:                 func() time.Time { return now },
		PlatformFeeRate:     dec("0.1"),
		PlatformDeliveryFee: dec("150"),
	})
	return &fixture{uc: uc, db: db, contracts: contracts, notes: notes, contract: c}
}

func (f *fixture) create(t *testing.T, m domainRedemption.DeliveryMethod) *RequestDTO {
	t.Helper()
	dto, err := f.uc.Create(context.Background(), CreateInput{
		ContractID: f.contract.ContractID, DeliveryMethod: m, PawnerID: pawner,
	})
	require.NoError(t, err)
	return dto
}

func TestCreate_ComputesPayoff(t *testing.T) {
	f := newFixture(t, nil)
	dto := f.create(t, domainRedemption.DeliveryPlatformArrange)

	assert.Equal(t, domainRedemption.StatusPending, dto.Status)
	assert.True(t, dto.PrincipalAmount.Equal(dec("10000")))
	assert.True(t, dto.InterestAmount.Equal(dec("75")))
	assert.True(t, dto.DeliveryFee.Equal(dec("150")))
	assert.True(t, dto.TotalAmount.Equal(dec("10225")))

	c, err := f.contracts.GetByContractID(context.Background(), f.contract.ContractID)
	require.NoError(t, err)
	assert.Equal(t, string(domainRedemption.StatusPending), c.RedemptionStatus)
	assert.Equal(t, []string{"PENDING"}, f.notes.States())
}

func TestCreate_RejectsSecondOpenRedemption(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, domainRedemption.DeliverySelfPickup)

	_, err := f.uc.Create(context.Background(), CreateInput{
		ContractID: f.contract.ContractID, DeliveryMethod: domainRedemption.DeliverySelfPickup, PawnerID: pawner,
	})
	assert.ErrorIs(t, err, domainRedemption.ErrPendingExists)
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestCreate_RefusedWhileActionRequestOpen(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	actions := mysql.NewActionRepository(f.db)
	open, err := domainAction.New(f.contract.ContractID, domainAction.PrincipalIncrease{IncreaseAmount: dec("5000")}, dec("75"), pawner)
	require.NoError(t, err)
	require.NoError(t, actions.Create(ctx, open))

	_, err = f.uc.Create(ctx, CreateInput{
		ContractID: f.contract.ContractID, DeliveryMethod: domainRedemption.DeliverySelfPickup, PawnerID: pawner,
	})
	assert.ErrorIs(t, err, domainAction.ErrPendingExists)
	assert.ErrorIs(t, err, errs.ErrConflict)

	c, err := f.contracts.GetByContractID(ctx, f.contract.ContractID)
	require.NoError(t, err)
	assert.Empty(t, c.RedemptionStatus)
	assert.Empty(t, f.notes.Events())

	// once the request is closed the pawner can redeem
	open.Status = domainAction.StatusCancelled
	require.NoError(t, actions.Transition(ctx, open, domainAction.StatusPending))
	f.create(t, domainRedemption.DeliverySelfPickup)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	stale := dec("10050")

	_, err := f.uc.Create(ctx, CreateInput{ContractID: f.contract.ContractID, DeliveryMethod: "DRONE", PawnerID: pawner})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = f.uc.Create(ctx, CreateInput{ContractID: f.contract.ContractID, DeliveryMethod: domainRedemption.DeliverySelfPickup, PawnerID: investor})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	_, err = f.uc.Create(ctx, CreateInput{ContractID: f.contract.ContractID, DeliveryMethod: domainRedemption.DeliverySelfPickup, PawnerID: pawner, TotalAmount: &stale})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestFullFlow_ProfitSplitAndClose(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	dto := f.create(t, domainRedemption.DeliverySelfArrange)

	_, err := f.uc.UploadSlip(ctx, dto.RedemptionID, "s3://slip/r.jpg", pawner)
	require.NoError(t, err)
	short := dec("25")
	got, err := f.uc.VerifyPayment(ctx, VerifyInput{RedemptionID: dto.RedemptionID, Actor: dropPoint, Action: VerifyAmountIncorrect, AdditionalAmount: &short})
	require.NoError(t, err)
	assert.Equal(t, domainRedemption.StatusAmountMismatch, got.Status)
	require.NotNil(t, got.AdditionalAmountRequired)

	_, err = f.uc.UploadSlip(ctx, dto.RedemptionID, "s3://slip/r2.jpg", pawner)
	require.NoError(t, err)
	got, err = f.uc.VerifyPayment(ctx, VerifyInput{RedemptionID: dto.RedemptionID, Actor: dropPoint, Action: VerifyAmountCorrect})
	require.NoError(t, err)
	assert.Equal(t, domainRedemption.StatusAmountVerified, got.Status)
	assert.Nil(t, got.AdditionalAmountRequired)

	_, err = f.uc.MarkPreparing(ctx, dto.RedemptionID, dropPoint)
	require.NoError(t, err)
	// shipped items must pass through IN_TRANSIT
	_, err = f.uc.UploadReceiptAndComplete(ctx, CompleteInput{RedemptionID: dto.RedemptionID, Actor: dropPoint, ReceiptPhotos: []string{"a.jpg"}})
	assert.ErrorIs(t, err, errs.ErrConflict)
	_, err = f.uc.MarkInTransit(ctx, dto.RedemptionID, dropPoint)
	require.NoError(t, err)

	c, err := f.contracts.GetByContractID(ctx, f.contract.ContractID)
	require.NoError(t, err)
	assert.Equal(t, projection.DeliveryInTransit, c.DeliveryStatus)

	done, err := f.uc.UploadReceiptAndComplete(ctx, CompleteInput{RedemptionID: dto.RedemptionID, Actor: dropPoint, ReceiptPhotos: []string{"a.jpg", "b.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, domainRedemption.StatusCompleted, done.Status)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, done.ReceiptPhotos)
	require.NotNil(t, done.PlatformFeeDeducted)
	require.NotNil(t, done.InvestorNetProfit)
	assert.True(t, done.PlatformFeeDeducted.Equal(dec("7.5")))
	assert.True(t, done.InvestorNetProfit.Equal(dec("67.5")))
	assert.True(t, done.InvestorNetProfit.Add(*done.PlatformFeeDeducted).Equal(done.InterestAmount))
	assert.True(t, done.PrincipalAmount.Add(done.InterestAmount).Add(done.DeliveryFee).Equal(done.TotalAmount))

	c, err = f.contracts.GetByContractID(ctx, f.contract.ContractID)
	require.NoError(t, err)
	assert.Equal(t, domainContract.StatusCompleted, c.Status)
	assert.Equal(t, string(domainRedemption.StatusCompleted), c.RedemptionStatus)
	assert.Equal(t, projection.DeliveryDelivered, c.DeliveryStatus)
	assert.True(t, c.PrincipalPaid.Equal(c.LoanPrincipalAmount))

	// terminal: no way back
	_, err = f.uc.Cancel(ctx, dto.RedemptionID, pawner, "")
	assert.ErrorIs(t, err, errs.ErrConflict)

	// replayed completion is acknowledged without another notification
	n := len(f.notes.Events())
	_, err = f.uc.UploadReceiptAndComplete(ctx, CompleteInput{RedemptionID: dto.RedemptionID, Actor: dropPoint, ReceiptPhotos: []string{"a.jpg"}})
	require.NoError(t, err)
	assert.Len(t, f.notes.Events(), n)
}

func TestComplete_UsesContractFeeRateAndVoidsOpenAction(t *testing.T) {
	rate := dec("0")
	f := newFixture(t, &rate)
	ctx := context.Background()

	dto := f.create(t, domainRedemption.DeliverySelfPickup)

	// a request row that got in beside the redemption is voided on completion
	open, err := domainAction.New(f.contract.ContractID, domainAction.InterestPayment{InterestToPay: dec("75")}, dec("0"), pawner)
	require.NoError(t, err)
	require.NoError(t, mysql.NewActionRepository(f.db).Create(ctx, open))
	_, err = f.uc.UploadSlip(ctx, dto.RedemptionID, "s3://slip/r.jpg", pawner)
	require.NoError(t, err)
	_, err = f.uc.VerifyPayment(ctx, VerifyInput{RedemptionID: dto.RedemptionID, Actor: dropPoint, Action: VerifyAmountCorrect})
	require.NoError(t, err)
	_, err = f.uc.MarkPreparing(ctx, dto.RedemptionID, dropPoint)
	require.NoError(t, err)
	_, err = f.uc.MarkInTransit(ctx, dto.RedemptionID, dropPoint)
	assert.ErrorIs(t, err, errs.ErrConflict, "pickups are not shipped")

	done, err := f.uc.UploadReceiptAndComplete(ctx, CompleteInput{RedemptionID: dto.RedemptionID, Actor: dropPoint, ReceiptPhotos: []string{"a.jpg"}})
	require.NoError(t, err)
	assert.True(t, done.PlatformFeeDeducted.IsZero())
	assert.True(t, done.InvestorNetProfit.Equal(dec("75")))

	voided, err := mysql.NewActionRepository(f.db).GetByRequestID(ctx, open.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domainAction.StatusVoided, voided.Status)

	c, err := f.contracts.GetByContractID(ctx, f.contract.ContractID)
	require.NoError(t, err)
	assert.Equal(t, projection.DeliveryPickedUp, c.DeliveryStatus)
}

func TestRejectAndCancel(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	dto := f.create(t, domainRedemption.DeliverySelfPickup)

	_, err := f.uc.Reject(ctx, dto.RedemptionID, dropPoint, "")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = f.uc.Reject(ctx, dto.RedemptionID, pawner, "nope")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	got, err := f.uc.Reject(ctx, dto.RedemptionID, dropPoint, "item under investigation")
	require.NoError(t, err)
	assert.Equal(t, domainRedemption.StatusRejected, got.Status)
	evs := f.notes.Events()
	assert.Equal(t, "item under investigation", evs[len(evs)-1].Reason)

	// the contract is free for a new redemption, which the pawner may cancel
	next := f.create(t, domainRedemption.DeliverySelfPickup)
	got, err = f.uc.Cancel(ctx, next.RedemptionID, pawner, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, domainRedemption.StatusCancelled, got.Status)

	c, err := f.contracts.GetByContractID(ctx, f.contract.ContractID)
	require.NoError(t, err)
	assert.Equal(t, domainContract.StatusActive, c.Status)
	assert.Empty(t, c.DeliveryStatus)
}

func TestVerifyPayment_Validation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	dto := f.create(t, domainRedemption.DeliverySelfPickup)

	_, err := f.uc.VerifyPayment(ctx, VerifyInput{RedemptionID: dto.RedemptionID, Actor: dropPoint, Action: VerifyAmountIncorrect})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = f.uc.VerifyPayment(ctx, VerifyInput{RedemptionID: dto.RedemptionID, Actor: dropPoint, Action: "maybe"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	// nothing uploaded yet
	_, err = f.uc.VerifyPayment(ctx, VerifyInput{RedemptionID: dto.RedemptionID, Actor: dropPoint, Action: VerifyAmountCorrect})
	assert.ErrorIs(t, err, errs.ErrConflict)
	_, err = f.uc.Get(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
