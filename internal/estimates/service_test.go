package estimates

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
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

type stubProjectChecker struct {
	exists bool
	err    error
}

func (s stubProjectChecker) ProjectExists(context.Context, uuid.UUID) (bool, error) {
	return s.exists, s.err
}

func openServiceDB(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Estimate{}, &models.EstimateItem{}))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newServiceDB(t *testing.T) *gorm.DB {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return openServiceDB(t, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
}

func newServiceUnderTest(t *testing.T, db *gorm.DB, projects ProjectChecker) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, projects, nil)
	require.NoError(t, err)
	return svc
}

func seedEstimate(t *testing.T, db *gorm.DB, profit, overhead, vat string) *models.Estimate {
	t.Helper()
	estimate := &models.Estimate{
		ProjectID:     uuid.New(),
		Name:          "Smeta korpus A",
		Type:          enums.EstimateTypePreliminary,
		Status:        enums.EstimateStatusDraft,
		ProfitMargin:  decimal.RequireFromString(profit),
		OverheadCosts: decimal.RequireFromString(overhead),
		VATRate:       decimal.RequireFromString(vat),
		TotalCost:     decimal.Zero,
		FinalAmount:   decimal.Zero,
		CreatedBy:     uuid.New(),
	}
	require.NoError(t, db.Create(estimate).Error)
	return estimate
}

func reloadEstimate(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Estimate {
	t.Helper()
	var estimate models.Estimate
	require.NoError(t, db.Where("id = ?", id).First(&estimate).Error)
	return &estimate
}

func requireErrorCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func TestCreateAppliesDefaults(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db, stubProjectChecker{exists: true})

	created, err := svc.Create(context.Background(), CreateInput{
		ProjectID: uuid.New(),
		Name:      "Fundament",
		Actor:     ActorContext{UserID: uuid.New()},
	})
	require.NoError(t, err)
	require.True(t, created.ProfitMargin.Equal(decimal.NewFromInt(20)))
	require.True(t, created.OverheadCosts.Equal(decimal.NewFromInt(15)))
	require.True(t, created.VATRate.Equal(decimal.NewFromInt(20)))
	require.True(t, created.TotalCost.IsZero())
	require.True(t, created.FinalAmount.IsZero())
	require.Equal(t, enums.EstimateTypePreliminary, created.Type)
	require.Equal(t, enums.EstimateStatusDraft, created.Status)
}

func TestCreateRejectsMissingProject(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db, stubProjectChecker{exists: false})

	_, err := svc.Create(context.Background(), CreateInput{
		ProjectID: uuid.New(),
		Name:      "Fundament",
	})
	requireErrorCode(t, err, pkgerrors.CodeNotFound)
}

func TestAddItemRecalculatesDerivedTotals(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db, stubProjectChecker{exists: true})
	estimate := seedEstimate(t, db, "20", "15", "20")

	item, err := svc.AddItem(context.Background(), AddItemInput{
		EstimateID: estimate.ID,
		Category:   "materials",
		Name:       "Beton M300",
		Unit:       "m3",
		Quantity:   decimal.NewFromInt(10),
		UnitPrice:  decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	require.True(t, item.TotalPrice.Equal(decimal.NewFromInt(1000)))

	stored := reloadEstimate(t, db, estimate.ID)
	require.True(t, stored.TotalCost.Equal(decimal.NewFromInt(1000)), "total_cost: %s", stored.TotalCost)
	require.True(t, stored.FinalAmount.Equal(decimal.NewFromInt(1656)), "final_amount: %s", stored.FinalAmount)
}

func TestAddItemRejectsNegativeAmounts(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db, stubProjectChecker{exists: true})
	estimate := seedEstimate(t, db, "20", "15", "20")

	_, err := svc.AddItem(context.Background(), AddItemInput{
		EstimateID: estimate.ID,
		Category:   "materials",
		Name:       "Beton M300",
		Unit:       "m3",
		Quantity:   decimal.NewFromInt(10),
		UnitPrice:  decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), AddItemInput{
		EstimateID: estimate.ID,
		Category:   "materials",
		Name:       "Beton",
		Unit:       "m3",
		Quantity:   decimal.NewFromInt(-1),
		UnitPrice:  decimal.NewFromInt(100),
	})
	requireErrorCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddItem(context.Background(), AddItemInput{
		EstimateID: estimate.ID,
		Category:   "materials",
		Name:       "Beton",
		Unit:       "m3",
		Quantity:   decimal.NewFromInt(1),
		UnitPrice:  decimal.NewFromInt(-5),
	})
	requireErrorCode(t, err, pkgerrors.CodeValidation)

	stored := reloadEstimate(t, db, estimate.ID)
	require.True(t, stored.TotalCost.Equal(decimal.NewFromInt(1000)), "total_cost drifted: %s", stored.TotalCost)
	require.True(t, stored.FinalAmount.Equal(decimal.NewFromInt(1656)), "final_amount drifted: %s", stored.FinalAmount)

	var itemCount int64
	require.NoError(t, db.Model(&models.EstimateItem{}).Where("estimate_id = ?", estimate.ID).Count(&itemCount).Error)
	require.EqualValues(t, 1, itemCount)
}

func TestAddItemUnknownEstimate(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db, stubProjectChecker{exists: true})

	_, err := svc.AddItem(context.Background(), AddItemInput{
		EstimateID: uuid.New(),
		Category:   "materials",
		Name:       "Beton",
		Unit:       "m3",
		Quantity:   decimal.NewFromInt(1),
		UnitPrice:  decimal.NewFromInt(1),
	})
	requireErrorCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateItemRederivesTotalPrice(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db, stubProjectChecker{exists: true})
	estimate := seedEstimate(t, db, "0", "0", "0")

	item, err := svc.AddItem(context.Background(), AddItemInput{
		EstimateID: estimate.ID,
		Category:   "works",
		Name:       "Kladka",
		Unit:       "m2",
		Quantity:   decimal.NewFromInt(2),
		UnitPrice:  decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	newQuantity := decimal.NewFromInt(5)
	updated, err := svc.UpdateItem(context.Background(), UpdateItemInput{
		EstimateID: estimate.ID,
		ItemID:     item.ID,
		Quantity:   &newQuantity,
	})
	require.NoError(t, err)
	require.True(t, updated.TotalPrice.Equal(decimal.NewFromInt(250)))

	stored := reloadEstimate(t, db, estimate.ID)
	require.True(t, stored.TotalCost.Equal(decimal.NewFromInt(250)), "total_cost: %s", stored.TotalCost)
}

func TestDeleteItemRecalculates(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db, stubProjectChecker{exists: true})
	estimate := seedEstimate(t, db, "0", "0", "0")

	first, err := svc.AddItem(context.Background(), AddItemInput{
		EstimateID: estimate.ID,
		Category:   "works",
		Name:       "Kladka",
		Unit:       "m2",
		Quantity:   decimal.NewFromInt(2),
		UnitPrice:  decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), AddItemInput{
		EstimateID: estimate.ID,
		Category:   "materials",
		Name:       "Kirpich",
		Unit:       "sht",
		Quantity:   decimal.NewFromInt(3),
		UnitPrice:  decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	stored := reloadEstimate(t, db, estimate.ID)
	require.True(t, stored.TotalCost.Equal(decimal.NewFromInt(130)), "total_cost: %s", stored.TotalCost)

	require.NoError(t, svc.DeleteItem(context.Background(), DeleteItemInput{
		EstimateID: estimate.ID,
		ItemID:     first.ID,
	}))

	stored = reloadEstimate(t, db, estimate.ID)
	require.True(t, stored.TotalCost.Equal(decimal.NewFromInt(30)), "total_cost: %s", stored.TotalCost)
}

func TestUpdateMarkupRecalculates(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db, stubProjectChecker{exists: true})
	estimate := seedEstimate(t, db, "20", "15", "20")

	_, err := svc.AddItem(context.Background(), AddItemInput{
		EstimateID: estimate.ID,
		Category:   "materials",
		Name:       "Beton",
		Unit:       "m3",
		Quantity:   decimal.NewFromInt(10),
		UnitPrice:  decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	zero := decimal.Zero
	_, err = svc.Update(context.Background(), UpdateInput{
		EstimateID: estimate.ID,
		VATRate:    &zero,
	})
	require.NoError(t, err)

	stored := reloadEstimate(t, db, estimate.ID)
	require.True(t, stored.TotalCost.Equal(decimal.NewFromInt(1000)), "total_cost: %s", stored.TotalCost)
	require.True(t, stored.FinalAmount.Equal(decimal.NewFromInt(1380)), "final_amount: %s", stored.FinalAmount)
}

func TestUpdateWithoutMarkupLeavesTotalsAlone(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db, stubProjectChecker{exists: true})
	estimate := seedEstimate(t, db, "20", "15", "20")

	name := "Smeta korpus B"
	updated, err := svc.Update(context.Background(), UpdateInput{
		EstimateID: estimate.ID,
		Name:       &name,
	})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)
	require.True(t, updated.TotalCost.IsZero())
}

func TestUpdateApprovedStatusStampsApprover(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db, stubProjectChecker{exists: true})
	estimate := seedEstimate(t, db, "20", "15", "20")

	approver := uuid.New()
	status := enums.EstimateStatusApproved
	updated, err := svc.Update(context.Background(), UpdateInput{
		EstimateID: estimate.ID,
		Status:     &status,
		Actor:      ActorContext{UserID: approver},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ApprovedBy)
	require.Equal(t, approver, *updated.ApprovedBy)
	require.NotNil(t, updated.ApprovedAt)
}

func TestListItemsOrderedBySortOrderThenID(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db, stubProjectChecker{exists: true})
	estimate := seedEstimate(t, db, "0", "0", "0")

	second := 2
	first := 1
	_, err := svc.AddItem(context.Background(), AddItemInput{
		EstimateID: estimate.ID,
		Category:   "works",
		Name:       "Later",
		Unit:       "m2",
		Quantity:   decimal.NewFromInt(1),
		UnitPrice:  decimal.NewFromInt(1),
		SortOrder:  &second,
	})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), AddItemInput{
		EstimateID: estimate.ID,
		Category:   "works",
		Name:       "Earlier",
		Unit:       "m2",
		Quantity:   decimal.NewFromInt(1),
		UnitPrice:  decimal.NewFromInt(1),
		SortOrder:  &first,
	})
	require.NoError(t, err)

	items, err := svc.ListItems(context.Background(), estimate.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Earlier", items[0].Name)
	require.Equal(t, "Later", items[1].Name)
}

func TestListByProjectFiltersAndPaginates(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db, stubProjectChecker{exists: true})

	projectID := uuid.New()
	for i := 0; i < 3; i++ {
		estimate := seedEstimate(t, db, "20", "15", "20")
		estimate.ProjectID = projectID
		require.NoError(t, db.Save(estimate).Error)
	}

	estimates, total, err := svc.ListByProject(context.Background(), projectID, pagination.Params{Page: 1, Limit: 2}, Filters{})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, estimates, 2)

	status := enums.EstimateStatusApproved
	estimates, total, err = svc.ListByProject(context.Background(), projectID, pagination.Params{Page: 1, Limit: 10}, Filters{Status: &status})
	require.NoError(t, err)
	require.EqualValues(t, 0, total)
	require.Empty(t, estimates)
}

func TestConcurrentAddItemsBothLand(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "concurrent.db"))
	db := openServiceDB(t, dsn)
	svc := newServiceUnderTest(t, db, stubProjectChecker{exists: true})
	estimate := seedEstimate(t, db, "0", "0", "0")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = svc.AddItem(context.Background(), AddItemInput{
				EstimateID: estimate.ID,
				Category:   "works",
				Name:       fmt.Sprintf("Item %d", idx),
				Unit:       "m2",
				Quantity:   decimal.NewFromInt(1),
				UnitPrice:  decimal.NewFromInt(100),
			})
		}(i)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	stored := reloadEstimate(t, db, estimate.ID)
	require.True(t, stored.TotalCost.Equal(decimal.NewFromInt(200)), "lost update: total_cost %s", stored.TotalCost)
}
