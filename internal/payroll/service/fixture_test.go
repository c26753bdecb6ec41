package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/smallbiznis/dairypay/internal/account/domain"
	accountrepo "github.com/smallbiznis/dairypay/internal/account/repository"
	auditdomain "github.com/smallbiznis/dairypay/internal/audit/domain"
	auditrepo "github.com/smallbiznis/dairypay/internal/audit/repository"
	auditservice "github.com/smallbiznis/dairypay/internal/audit/service"
	chargedomain "github.com/smallbiznis/dairypay/internal/charge/domain"
	chargerepo "github.com/smallbiznis/dairypay/internal/charge/repository"
	chargeservice "github.com/smallbiznis/dairypay/internal/charge/service"
	"github.com/smallbiznis/dairypay/internal/clock"
	ledgerdomain "github.com/smallbiznis/dairypay/internal/ledger/domain"
	ledgerservice "github.com/smallbiznis/dairypay/internal/ledger/service"
	milksaledomain "github.com/smallbiznis/dairypay/internal/milksale/domain"
	milksalerepo "github.com/smallbiznis/dairypay/internal/milksale/repository"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
	"github.com/smallbiznis/dairypay/internal/payroll/repository"
	"github.com/smallbiznis/dairypay/internal/providers/excel"
	"github.com/smallbiznis/dairypay/internal/providers/pdf"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	coopID     = snowflake.ID(100)
	otherCoop  = snowflake.ID(101)
	supplierS1 = snowflake.ID(201)
	supplierS2 = snowflake.ID(202)
	supplierS3 = snowflake.ID(203)
)

type fixture struct {
	db      *gorm.DB
	clock   *clock.FakeClock
	node    *snowflake.Node
	svc     payrolldomain.Service
	charges chargedomain.Service
}

type fixtureOption func(*Params)

func withLedger(svc ledgerdomain.Service) fixtureOption {
	return func(p *Params) { p.LedgerSvc = svc }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:payroll_"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	models := []any{
		&accountdomain.Account{},
		&milksaledomain.MilkSale{},
		&chargedomain.Charge{},
		&chargedomain.ChargeSupplier{},
		&chargedomain.ChargeApplication{},
		&payrolldomain.PayrollPeriod{},
		&payrolldomain.PayrollRun{},
		&payrolldomain.PayrollSupplier{},
		&payrolldomain.PayrollPayslip{},
		&payrolldomain.PayrollDeduction{},
		&ledgerdomain.LedgerAccount{},
		&ledgerdomain.LedgerEntry{},
		&ledgerdomain.LedgerEntryLine{},
		&auditdomain.AuditLog{},
	}
	require.NoError(t, db.Migrator().DropTable(models...))
	require.NoError(t, db.AutoMigrate(models...))

	require.NoError(t, db.Create(&[]accountdomain.Account{
		{ID: coopID, Code: "COOP", Name: "Coop", Type: "cooperative", Status: accountdomain.StatusActive},
		{ID: supplierS1, Code: "A_S1", Name: "Supplier One", Type: "supplier", Status: accountdomain.StatusActive},
		{ID: supplierS2, Code: "A_S2", Name: "Supplier Two", Type: "supplier", Status: accountdomain.StatusActive},
		{ID: supplierS3, Code: "A_S3", Name: "Supplier Three", Type: "supplier", Status: "inactive"},
	}).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 1, 16, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	auditSvc := auditservice.NewService(auditservice.Params{DB: db, Log: log, GenID: node, Repo: auditrepo.Provide(), Clock: clk})
	chargeRepo := chargerepo.NewRepository(db)
	params := Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        clk,
		Repo:         repository.NewRepository(db),
		AccountRepo:  accountrepo.NewRepository(db),
		MilkSaleRepo: milksalerepo.NewRepository(db),
		Resolver:     chargeservice.NewResolver(chargeservice.ResolverParams{Log: log, Repo: chargeRepo}),
		LedgerSvc:    ledgerservice.NewService(ledgerservice.Params{DB: db, Log: log, GenID: node, Clock: clk}),
		PDF:          pdf.New(),
		Excel:        excel.New(),
		AuditSvc:     auditSvc,
	}
	for _, opt := range opts {
		opt(&params)
	}

	return &fixture{
		db:    db,
		clock: clk,
		node:  node,
		svc:   NewService(params),
		charges: chargeservice.NewService(chargeservice.Params{
			DB:    db,
			Log:   log,
			GenID: node,
			Clock: clk,
			Repo:  chargeRepo,
		}),
	}
}

func day(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }

func (f *fixture) addSale(t *testing.T, supplier snowflake.ID, at time.Time, quantity, unitPrice string) {
	t.Helper()
	require.NoError(t, f.db.Create(&milksaledomain.MilkSale{
		ID:                f.node.Generate(),
		SupplierAccountID: supplier,
		CustomerAccountID: coopID,
		Quantity:          decimal.RequireFromString(quantity),
		UnitPrice:         decimal.RequireFromString(unitPrice),
		SaleAt:            at,
		Status:            milksaledomain.StatusAccepted,
		CreatedAt:         at,
	}).Error)
}

func (f *fixture) addCharge(t *testing.T, req chargedomain.CreateRequest) snowflake.ID {
	t.Helper()
	req.AccountID = coopID
	resp, err := f.charges.Create(context.Background(), req)
	require.NoError(t, err)
	id, err := snowflake.ParseString(resp.ID)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	return id
}

func (f *fixture) generate(t *testing.T, codes []string, start, end time.Time) *payrolldomain.GenerateResult {
	t.Helper()
	result, err := f.svc.Generate(context.Background(), payrolldomain.GenerateRequest{
		AccountID:     coopID,
		SupplierCodes: codes,
		PeriodStart:   start,
		PeriodEnd:     end,
		CreatedBy:     "user-1",
	})
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	return result
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func mustParse(t *testing.T, raw string) snowflake.ID {
	t.Helper()
	id, err := snowflake.ParseString(raw)
	require.NoError(t, err)
	return id
}

func recurrence(r chargedomain.Recurrence) *chargedomain.Recurrence { return &r }

func boolPtr(v bool) *bool { return &v }

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) CreateEntry(ctx context.Context, req ledgerdomain.CreateEntryRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockLedger) PostExpense(ctx context.Context, entry ledgerdomain.ExpenseEntry) error {
	return m.Called(ctx, entry).Error(0)
}
