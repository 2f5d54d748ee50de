package warehouse

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stroytech/stroycrm-backend/pkg/db/models"
	"github.com/stroytech/stroycrm-backend/pkg/enums"
	pkgerrors "github.com/stroytech/stroycrm-backend/pkg/errors"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.WarehouseItem{}, &models.WarehouseMovement{}))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newServiceUnderTest(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, nil)
	require.NoError(t, err)
	return svc
}

func requireErrorCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedItem(t *testing.T, svc Service, quantity string) *models.WarehouseItem {
	t.Helper()
	initial := dec(quantity)
	price := dec("350")
	item, err := svc.CreateItem(context.Background(), CreateItemInput{
		Name:            "Cement M500",
		Category:        "materials",
		Unit:            "bag",
		CurrentQuantity: &initial,
		UnitPrice:       &price,
	})
	require.NoError(t, err)
	return item
}

func TestCreateItemDefaults(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	item, err := svc.CreateItem(context.Background(), CreateItemInput{
		Name:     "Armatura 12mm",
		Category: "materials",
		Unit:     "t",
	})
	require.NoError(t, err)
	require.Equal(t, enums.WarehouseItemStatusActive, item.Status)
	require.True(t, item.CurrentQuantity.IsZero())
}

func TestCreateItemValidation(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	_, err := svc.CreateItem(context.Background(), CreateItemInput{Name: " ", Category: "materials", Unit: "sht"})
	requireErrorCode(t, err, pkgerrors.CodeValidation)

	negative := dec("-1")
	_, err = svc.CreateItem(context.Background(), CreateItemInput{
		Name:            "Kirpich",
		Category:        "materials",
		Unit:            "sht",
		CurrentQuantity: &negative,
	})
	requireErrorCode(t, err, pkgerrors.CodeValidation)
}

func TestReceiptIncreasesStock(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)
	item := seedItem(t, svc, "10")

	movement, err := svc.RecordMovement(context.Background(), MovementInput{
		ItemID:   item.ID,
		Type:     enums.MovementTypeReceipt,
		Quantity: dec("25"),
		Actor:    ActorContext{UserID: uuid.New()},
	})
	require.NoError(t, err)
	require.True(t, movement.TotalCost.Equal(dec("8750")), "got %s", movement.TotalCost)

	stored, err := svc.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	require.True(t, stored.CurrentQuantity.Equal(dec("35")), "got %s", stored.CurrentQuantity)
}

func TestIssueDecreasesStock(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)
	item := seedItem(t, svc, "10")

	projectID := uuid.New()
	_, err := svc.RecordMovement(context.Background(), MovementInput{
		ItemID:    item.ID,
		Type:      enums.MovementTypeIssue,
		Quantity:  dec("4"),
		ProjectID: &projectID,
	})
	require.NoError(t, err)

	stored, err := svc.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	require.True(t, stored.CurrentQuantity.Equal(dec("6")), "got %s", stored.CurrentQuantity)
}

func TestIssueRejectsInsufficientStock(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)
	item := seedItem(t, svc, "3")

	_, err := svc.RecordMovement(context.Background(), MovementInput{
		ItemID:   item.ID,
		Type:     enums.MovementTypeIssue,
		Quantity: dec("5"),
	})
	requireErrorCode(t, err, pkgerrors.CodeValidation)

	stored, err := svc.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	require.True(t, stored.CurrentQuantity.Equal(dec("3")), "stock must be unchanged, got %s", stored.CurrentQuantity)
}

func TestMovementValidation(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)
	item := seedItem(t, svc, "10")

	_, err := svc.RecordMovement(context.Background(), MovementInput{
		ItemID:   item.ID,
		Type:     enums.MovementType("donation"),
		Quantity: dec("1"),
	})
	requireErrorCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.RecordMovement(context.Background(), MovementInput{
		ItemID:   item.ID,
		Type:     enums.MovementTypeReceipt,
		Quantity: dec("0"),
	})
	requireErrorCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.RecordMovement(context.Background(), MovementInput{
		ItemID:   uuid.New(),
		Type:     enums.MovementTypeReceipt,
		Quantity: dec("1"),
	})
	requireErrorCode(t, err, pkgerrors.CodeNotFound)
}

func TestListItemsLowStockFilter(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	low := dec("2")
	min := dec("5")
	_, err := svc.CreateItem(context.Background(), CreateItemInput{
		Name:            "Gvozdi 100mm",
		Category:        "fasteners",
		Unit:            "kg",
		CurrentQuantity: &low,
		MinQuantity:     &min,
	})
	require.NoError(t, err)
	seedItem(t, svc, "100")

	items, total, err := svc.ListItems(context.Background(), pagination.Params{}, ItemFilters{LowStock: true})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Gvozdi 100mm", items[0].Name)
}

func TestListMovementsNewestFirst(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)
	item := seedItem(t, svc, "10")

	_, err := svc.RecordMovement(context.Background(), MovementInput{
		ItemID:   item.ID,
		Type:     enums.MovementTypeReceipt,
		Quantity: dec("5"),
	})
	require.NoError(t, err)
	_, err = svc.RecordMovement(context.Background(), MovementInput{
		ItemID:   item.ID,
		Type:     enums.MovementTypeIssue,
		Quantity: dec("2"),
	})
	require.NoError(t, err)

	movements, total, err := svc.ListMovements(context.Background(), item.ID, pagination.Params{})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, movements, 2)
}
