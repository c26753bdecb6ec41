package repository

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/smallbiznis/dairypay/internal/account/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:account_repo?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropTable(&accountdomain.Account{}))
	require.NoError(t, db.AutoMigrate(&accountdomain.Account{}))
	return db
}

func TestFindByCodesKeepsRequestOrder(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Create(&[]accountdomain.Account{
		{ID: 1, Code: "A_ONE", Name: "One", Type: "supplier", Status: accountdomain.StatusActive},
		{ID: 2, Code: "A_TWO", Name: "Two", Type: "supplier", Status: "inactive"},
	}).Error)

	repo := NewRepository(db)
	accounts, err := repo.FindByCodes(context.Background(), []string{"A_TWO", " ", "A_MISSING", "A_ONE", "A_TWO"})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "A_TWO", accounts[0].Code)
	assert.Equal(t, "A_ONE", accounts[1].Code)
	assert.False(t, accounts[0].IsActive())
	assert.True(t, accounts[1].IsActive())
}

func TestFindByIDMissReturnsNil(t *testing.T) {
	db := setupDB(t)
	repo := NewRepository(db)

	account, err := repo.FindByID(context.Background(), snowflake.ID(99))
	require.NoError(t, err)
	assert.Nil(t, account)

	accounts, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
