// Package testutil builds throwaway SQLite databases with the production
// schema for service and handler tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/fanstore-backend/internal/database"
	"github.com/javajoker/fanstore-backend/internal/models"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory database and migrates it. A single
// connection keeps every statement on the same in-memory database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, dbSeq.Add(1))

	db, err := database.Open(sqlite.Open(dsn), logger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.RunMigrations(db))
	return db
}

// CreateProduct inserts a product with the given name and price.
func CreateProduct(t testing.TB, db *gorm.DB, name, price string) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    10,
		Category: models.StringArray{"jerseys"},
		Image:    "https://cdn.example/" + strings.ToLower(name) + ".png",
	}
	require.NoError(t, db.Create(p).Error)
	p.SKU = models.BuildSKU(p.Name, p.ID)
	require.NoError(t, db.Model(p).Update("sku", p.SKU).Error)
	return p
}

// CreateUser inserts a customer account.
func CreateUser(t testing.TB, db *gorm.DB, email string) *models.User {
	t.Helper()

	u := &models.User{Name: email, Email: email, Role: models.UserRoleCustomer}
	require.NoError(t, u.SetPassword("Secret123!"))
	require.NoError(t, db.Create(u).Error)
	return u
}

// FailCreatesOn makes every INSERT into table fail with err.
func FailCreatesOn(t testing.TB, db *gorm.DB, table string, err error) {
	t.Helper()

	name := "testutil:fail_" + table
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			tx.AddError(err)
		}
	}))
	t.Cleanup(func() { db.Callback().Create().Remove(name) })
}

// FailNextQueryOn makes the next SELECT from table fail with err. Later
// queries run normally.
func FailNextQueryOn(t testing.TB, db *gorm.DB, table string, err error) {
	t.Helper()

	var fired atomic.Bool
	name := "testutil:fail_query_" + table
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table && fired.CompareAndSwap(false, true) {
			tx.AddError(err)
		}
	}))
	t.Cleanup(func() { db.Callback().Query().Remove(name) })
}
