package infra

import (
	"fmt"

	"fabriq/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the SQL objects GORM cannot express
// (the code sequences).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations applies the schema. Also used by integration tests against a
// throwaway database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Party{},
		&model.BOM{},
		&model.FinishedGoodLine{},
		&model.RawMaterialLine{},
		&model.ScrapMaterialLine{},
		&model.InventoryShortage{},
		&model.ProductionProcess{},
		&model.Dispatch{},
		&model.PurchaseOrder{},
		&model.PurchaseOrderItem{},
		&model.StockMovement{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches creates the document-number sequences. Idempotent so
// re-running on an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		`CREATE SEQUENCE IF NOT EXISTS bom_code_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS po_number_seq START 1`,
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql, err)
		}
	}
	return nil
}
