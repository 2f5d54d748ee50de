package employees

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

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

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Employee{}))
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

func validCreateInput() CreateInput {
	return CreateInput{
		FirstName:  "Ivan",
		LastName:   "Petrov",
		Position:   "Prorab",
		Department: "Stroitelstvo",
		Phone:      "+79001234567",
		HireDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateEmployeeDefaultsToActive(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	created, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)
	require.Equal(t, enums.EmployeeStatusActive, created.Status)
	require.Nil(t, created.TerminationDate)
}

func TestCreateEmployeeValidation(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	input := validCreateInput()
	input.LastName = "  "
	_, err := svc.Create(context.Background(), input)
	requireErrorCode(t, err, pkgerrors.CodeValidation)

	input = validCreateInput()
	input.HireDate = time.Time{}
	_, err = svc.Create(context.Background(), input)
	requireErrorCode(t, err, pkgerrors.CodeValidation)

	input = validCreateInput()
	negative := decimal.NewFromInt(-100)
	input.Salary = &negative
	_, err = svc.Create(context.Background(), input)
	requireErrorCode(t, err, pkgerrors.CodeValidation)
}

func TestTerminationStampsDate(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	created, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), UpdateInput{
		EmployeeID: created.ID,
		Status:     ptr(enums.EmployeeStatusTerminated),
	})
	require.NoError(t, err)
	require.Equal(t, enums.EmployeeStatusTerminated, updated.Status)
	require.NotNil(t, updated.TerminationDate)
}

func TestUpdateEmployeePartialFields(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	created, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	salary := decimal.RequireFromString("120000")
	updated, err := svc.Update(context.Background(), UpdateInput{
		EmployeeID: created.ID,
		Position:   ptr("Starshiy prorab"),
		Salary:     &salary,
	})
	require.NoError(t, err)
	require.Equal(t, "Starshiy prorab", updated.Position)
	require.NotNil(t, updated.Salary)
	require.True(t, updated.Salary.Equal(salary))
	require.Equal(t, "Petrov", updated.LastName)
}

func TestListEmployeesFiltersAndOrders(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	first := validCreateInput()
	first.LastName = "Sidorov"
	first.Department = "Snabzhenie"
	_, err := svc.Create(context.Background(), first)
	require.NoError(t, err)

	second := validCreateInput()
	second.LastName = "Andreev"
	_, err = svc.Create(context.Background(), second)
	require.NoError(t, err)

	employees, total, err := svc.List(context.Background(), pagination.Params{}, Filters{})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Equal(t, "Andreev", employees[0].LastName)
	require.Equal(t, "Sidorov", employees[1].LastName)

	employees, total, err = svc.List(context.Background(), pagination.Params{}, Filters{Department: "Snabzhenie"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Sidorov", employees[0].LastName)
}
