package contractors

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stroytech/stroycrm-backend/pkg/db/models"
	pkgerrors "github.com/stroytech/stroycrm-backend/pkg/errors"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Contractor{}))
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
	svc, err := NewService(NewRepository(db), nil)
	require.NoError(t, err)
	return svc
}

func requireErrorCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func ptr[T any](v T) *T {
	return &v
}

func TestCreateContractorDefaultsToActive(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	created, err := svc.Create(context.Background(), CreateInput{
		Name:           "OOO StroyMontazh",
		Specialization: ptr("monolith"),
	})
	require.NoError(t, err)
	require.Equal(t, StatusActive, created.Status)
	require.True(t, created.Rating.IsZero())
}

func TestCreateContractorValidation(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	_, err := svc.Create(context.Background(), CreateInput{Name: "   "})
	requireErrorCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(context.Background(), CreateInput{
		Name:   "OOO StroyMontazh",
		Status: ptr("suspended"),
	})
	requireErrorCode(t, err, pkgerrors.CodeValidation)

	six := decimal.NewFromInt(6)
	_, err = svc.Create(context.Background(), CreateInput{
		Name:   "OOO StroyMontazh",
		Rating: &six,
	})
	requireErrorCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateContractorRating(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	created, err := svc.Create(context.Background(), CreateInput{Name: "OOO FasadPro"})
	require.NoError(t, err)

	rating := decimal.RequireFromString("4.5")
	updated, err := svc.Update(context.Background(), UpdateInput{
		ContractorID: created.ID,
		Rating:       &rating,
		Status:       ptr(StatusInactive),
	})
	require.NoError(t, err)
	require.True(t, updated.Rating.Equal(rating))
	require.Equal(t, StatusInactive, updated.Status)
	require.Equal(t, "OOO FasadPro", updated.Name)
}

func TestListContractorsFilters(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	_, err := svc.Create(context.Background(), CreateInput{
		Name:           "OOO ElektroSet",
		Specialization: ptr("electrical"),
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateInput{
		Name:           "OOO SantehMaster",
		Specialization: ptr("plumbing"),
		Status:         ptr(StatusBlacklist),
	})
	require.NoError(t, err)

	contractors, total, err := svc.List(context.Background(), pagination.Params{}, Filters{Specialization: "electrical"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "OOO ElektroSet", contractors[0].Name)

	contractors, total, err = svc.List(context.Background(), pagination.Params{}, Filters{Status: StatusBlacklist})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "OOO SantehMaster", contractors[0].Name)

	_, _, err = svc.List(context.Background(), pagination.Params{}, Filters{Status: "pending"})
	requireErrorCode(t, err, pkgerrors.CodeValidation)
}

func TestDeleteContractorRemovesRow(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	created, err := svc.Create(context.Background(), CreateInput{Name: "OOO DemontazhService"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID, ActorContext{}))

	err = svc.Delete(context.Background(), created.ID, ActorContext{})
	requireErrorCode(t, err, pkgerrors.CodeNotFound)
}
