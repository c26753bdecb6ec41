package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	accountdomain "github.com/smallbiznis/dairypay/internal/account/domain"
	auditdomain "github.com/smallbiznis/dairypay/internal/audit/domain"
	chargedomain "github.com/smallbiznis/dairypay/internal/charge/domain"
	ledgerdomain "github.com/smallbiznis/dairypay/internal/ledger/domain"
	milksaledomain "github.com/smallbiznis/dairypay/internal/milksale/domain"
	payrolldomain "github.com/smallbiznis/dairypay/internal/payroll/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Closing the migrator would close the shared *sql.DB.

	return nil
}

// Models lists every table the service owns or reads, for gorm AutoMigrate
// on databases without SQL migrations.
func Models() []any {
	return []any{
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
}

// AutoMigrate creates the schema from the gorm models.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(Models()...)
}
