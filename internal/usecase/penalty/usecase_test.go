package penalty

import (
	"context"
	"testing"
	"time"

	"pawn-settlement/internal/adapter/repository/mysql"
	domainContract "pawn-settlement/internal/domain/contract"
	"pawn-settlement/internal/domain/errs"
	domainPenalty "pawn-settlement/internal/domain/penalty"
	"pawn-settlement/internal/slip"
	"pawn-settlement/internal/testutil/dbtest"
	"pawn-settlement/internal/testutil/notifymock"
	"pawn-settlement/internal/testutil/slipmock"
	"pawn-settlement/pkg/id"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pawner = "U-pawner"

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	uc        *Usecase
	clock     *time.Time
	contracts *mysql.ContractRepository
	penalties *mysql.PenaltyRepository
	notes     *notifymock.Recorder
	contract  *domainContract.Contract
}

// newFixture seeds an active contract that ended on 2024-01-10 with the clock at noon on 2024-01-13.
func newFixture(t *testing.T, v slip.Verifier) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	contracts := mysql.NewContractRepository(db)
	c := &domainContract.Contract{
		ContractID:          id.NewID32(),
		PawnerID:            pawner,
		InvestorID:          "U-investor",
		LoanPrincipalAmount: dec("10000"),
		InterestRate:        dec("1.5"),
		TermDays:            30,
		StartDate:           day(2023, 12, 11),
		EndDate:             day(2024, 1, 10),
		Status:              domainContract.StatusActive,
		TotalAmount:         dec("10000"),
	}
	require.NoError(t, contracts.Create(context.Background(), c))

	clock := time.Date(2024, 1, 13, 12, 0, 0, 0, time.UTC)
	f := &fixture{clock: &clock, contracts: contracts, penalties: mysql.NewPenaltyRepository(db), notes: &notifymock.Recorder{}, contract: c}
	f.uc = NewUsecase(Deps{
		UoW:          mysql.NewGormUoW(db),
		Contracts:    contracts,
		Penalties:    f.penalties,
		Verifier:     v,
		Notifier:     f.notes,
		Now:          func() time.Time { return *f.clock },
		SupportPhone: "02-000-0000",
	})
	return f
}

func TestCreatePenalty_ThreeDaysOverdue(t *testing.T) {
	f := newFixture(t, slipmock.Detecting("300"))
	got, err := f.uc.CreatePenalty(context.Background(), f.contract.ContractID)
	require.NoError(t, err)

	assert.True(t, got.Required)
	assert.False(t, got.AlreadyPaid)
	assert.Equal(t, 3, got.DaysOverdue)
	assert.True(t, got.PenaltyAmount.Equal(dec("300")), "amount %s", got.PenaltyAmount)
	assert.Equal(t, domainPenalty.StatusPending, got.Status)
	assert.Len(t, got.PaymentID, 32)
	assert.Equal(t, 2, got.RemainingAttempts)
}

func TestCreatePenalty_IdempotentPerDay(t *testing.T) {
	f := newFixture(t, slipmock.Detecting("300"))
	ctx := context.Background()
	first, err := f.uc.CreatePenalty(ctx, f.contract.ContractID)
	require.NoError(t, err)
	second, err := f.uc.CreatePenalty(ctx, f.contract.ContractID)
	require.NoError(t, err)
	assert.Equal(t, first.PaymentID, second.PaymentID)

	rows, err := f.penalties.ListPayable(ctx, f.contract.ContractID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCreatePenalty_NotOverdue(t *testing.T) {
	f := newFixture(t, slipmock.Detecting("0"))
	*f.clock = time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	got, err := f.uc.CreatePenalty(context.Background(), f.contract.ContractID)
	require.NoError(t, err)
	assert.False(t, got.Required)
	assert.Empty(t, got.PaymentID)
	assert.Equal(t, 0, got.DaysOverdue)
}

func TestCreatePenalty_NextDayReplacesUnpaidRow(t *testing.T) {
	f := newFixture(t, slipmock.Detecting("400"))
	ctx := context.Background()
	first, err := f.uc.CreatePenalty(ctx, f.contract.ContractID)
	require.NoError(t, err)

	*f.clock = f.clock.AddDate(0, 0, 1)
	next, err := f.uc.CreatePenalty(ctx, f.contract.ContractID)
	require.NoError(t, err)
	assert.NotEqual(t, first.PaymentID, next.PaymentID)
	assert.Equal(t, 4, next.DaysOverdue)
	assert.True(t, next.PenaltyAmount.Equal(dec("400")))

	old, err := f.penalties.GetByPaymentID(ctx, first.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, domainPenalty.StatusCancelled, old.Status)

	_, err = f.uc.VerifyPenaltySlip(ctx, VerifyInput{PaymentID: first.PaymentID, SlipURL: "s3://slip/old.jpg"})
	assert.ErrorIs(t, err, domainPenalty.ErrNotPayable)
}

func TestVerifyPenaltySlip_PaidThenStatusNotRequired(t *testing.T) {
	f := newFixture(t, slipmock.Detecting("300"))
	ctx := context.Background()
	created, err := f.uc.CreatePenalty(ctx, f.contract.ContractID)
	require.NoError(t, err)

	res, err := f.uc.VerifyPenaltySlip(ctx, VerifyInput{PaymentID: created.PaymentID, SlipURL: "s3://slip/1.jpg", PawnerID: pawner})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domainPenalty.StatusVerified, res.Payment.Status)

	c, err := f.contracts.GetByContractID(ctx, f.contract.ContractID)
	require.NoError(t, err)
	require.NotNil(t, c.PenaltyPaidThrough)
	assert.True(t, c.PenaltyPaidThrough.Equal(day(2024, 1, 13)))

	status, err := f.uc.GetPenaltyStatus(ctx, f.contract.ContractID, pawner)
	require.NoError(t, err)
	assert.False(t, status.Required)
	assert.True(t, status.AlreadyPaid)

	// replay: acknowledged, nothing re-sent
	notes := len(f.notes.Events())
	again, err := f.uc.VerifyPenaltySlip(ctx, VerifyInput{PaymentID: created.PaymentID, SlipURL: "s3://slip/1.jpg"})
	require.NoError(t, err)
	assert.True(t, again.Success)
	assert.Len(t, f.notes.Events(), notes)

	// the next day only that day is charged
	*f.clock = f.clock.AddDate(0, 0, 1)
	tomorrow, err := f.uc.CreatePenalty(ctx, f.contract.ContractID)
	require.NoError(t, err)
	assert.Equal(t, 4, tomorrow.DaysOverdue)
	assert.True(t, tomorrow.PenaltyAmount.Equal(dec("100")))
}

func TestVerifyPenaltySlip_TwoUnderpaidIsFinal(t *testing.T) {
	f := newFixture(t, slipmock.Detecting("250"))
	ctx := context.Background()
	created, err := f.uc.CreatePenalty(ctx, f.contract.ContractID)
	require.NoError(t, err)

	first, err := f.uc.VerifyPenaltySlip(ctx, VerifyInput{PaymentID: created.PaymentID, SlipURL: "s3://slip/1.jpg"})
	require.NoError(t, err)
	assert.False(t, first.Success)
	assert.Equal(t, string(slip.Underpaid), first.Result)
	assert.Equal(t, domainPenalty.StatusRejected, first.Payment.Status)
	assert.Equal(t, 1, first.RemainingAttempts)
	require.NotNil(t, first.Difference)
	assert.True(t, first.Difference.Equal(dec("50")))
	assert.Empty(t, first.SupportPhone)

	second, err := f.uc.VerifyPenaltySlip(ctx, VerifyInput{PaymentID: created.PaymentID, SlipURL: "s3://slip/2.jpg"})
	require.NoError(t, err)
	assert.Equal(t, domainPenalty.StatusRejectedFinal, second.Payment.Status)
	assert.Equal(t, 0, second.RemainingAttempts)
	assert.Equal(t, "02-000-0000", second.SupportPhone)

	_, err = f.uc.VerifyPenaltySlip(ctx, VerifyInput{PaymentID: created.PaymentID, SlipURL: "s3://slip/3.jpg"})
	assert.ErrorIs(t, err, errs.ErrAttemptsExhausted)

	assert.Equal(t, []string{"REJECTED", "REJECTED_FINAL"}, f.notes.States())
}

func TestVerifyPenaltySlip_VerifierErrorCountsAsUnreadable(t *testing.T) {
	v := &slipmock.Verifier{VerifyFn: func(context.Context, string, decimal.Decimal) (slip.Result, error) {
		return slip.Result{}, errs.ErrUpstreamUnavailable
	}}
	f := newFixture(t, v)
	ctx := context.Background()
	created, err := f.uc.CreatePenalty(ctx, f.contract.ContractID)
	require.NoError(t, err)

	res, err := f.uc.VerifyPenaltySlip(ctx, VerifyInput{PaymentID: created.PaymentID, SlipURL: "s3://slip/1.jpg"})
	require.NoError(t, err)
	assert.Equal(t, string(slip.Unreadable), res.Result)
	assert.Equal(t, 1, res.RemainingAttempts)
}

func TestPenalty_Authorization(t *testing.T) {
	f := newFixture(t, slipmock.Detecting("300"))
	ctx := context.Background()
	created, err := f.uc.CreatePenalty(ctx, f.contract.ContractID)
	require.NoError(t, err)

	_, err = f.uc.GetPenaltyStatus(ctx, f.contract.ContractID, "U-someone-else")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	_, err = f.uc.VerifyPenaltySlip(ctx, VerifyInput{PaymentID: created.PaymentID, SlipURL: "x", PawnerID: "U-someone-else"})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	_, err = f.uc.GetPenaltyStatus(ctx, "missing", "")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGetPenaltyStatus_BeforeCreation(t *testing.T) {
	f := newFixture(t, slipmock.Detecting("300"))
	got, err := f.uc.GetPenaltyStatus(context.Background(), f.contract.ContractID, "")
	require.NoError(t, err)
	assert.True(t, got.Required)
	assert.Empty(t, got.PaymentID)
	assert.True(t, got.PenaltyAmount.Equal(dec("300")))
}

func TestSweepOverdue(t *testing.T) {
	f := newFixture(t, slipmock.Detecting("300"))
	ctx := context.Background()

	current := *f.contract
	current.ID = 0
	current.ContractID = id.NewID32()
	current.EndDate = day(2024, 2, 10)
	require.NoError(t, f.contracts.Create(ctx, &current))

	rep, err := f.uc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Checked: 1, Created: 1}, rep)

	rep, err = f.uc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Checked: 1, Created: 0}, rep)
}
