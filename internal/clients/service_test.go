package clients

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stroytech/stroycrm-backend/pkg/db/models"
	"github.com/stroytech/stroycrm-backend/pkg/enums"
	pkgerrors "github.com/stroytech/stroycrm-backend/pkg/errors"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Client{}))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	svc, err := NewService(NewRepository(db), nil)
	require.NoError(t, err)
	return svc, db
}

func TestCreateClientDefaultsToPotential(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(context.Background(), CreateInput{
		Type:  enums.ClientTypeCompany,
		Name:  "OOO Spetsstroy",
		Actor: ActorContext{UserID: uuid.New()},
	})
	require.NoError(t, err)
	require.Equal(t, enums.ClientStatusPotential, created.Status)
	require.NotEqual(t, uuid.Nil, created.ID)
}

func TestCreateClientValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInput{Type: enums.ClientTypeCompany, Name: "  "})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.Create(context.Background(), CreateInput{Type: "corporation", Name: "X"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestUpdateClientPartialFields(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(context.Background(), CreateInput{
		Type: enums.ClientTypeCompany,
		Name: "OOO Spetsstroy",
	})
	require.NoError(t, err)

	inn := "7701234567"
	status := enums.ClientStatusActive
	updated, err := svc.Update(context.Background(), UpdateInput{
		ClientID: created.ID,
		INN:      &inn,
		Status:   &status,
	})
	require.NoError(t, err)
	require.Equal(t, enums.ClientStatusActive, updated.Status)
	require.NotNil(t, updated.INN)
	require.Equal(t, inn, *updated.INN)
	require.Equal(t, "OOO Spetsstroy", updated.Name)
}

func TestGetUnknownClient(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListClientsFiltersByStatusAndSearch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	active := enums.ClientStatusActive
	_, err := svc.Create(ctx, CreateInput{Type: enums.ClientTypeCompany, Name: "OOO Spetsstroy", Status: &active})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Type: enums.ClientTypeIndividual, Name: "Sidorov A.A."})
	require.NoError(t, err)

	clients, total, err := svc.List(ctx, pagination.Params{Page: 1, Limit: 10}, Filters{Status: &active})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, clients, 1)
	require.Equal(t, "OOO Spetsstroy", clients[0].Name)

	clients, total, err = svc.List(ctx, pagination.Params{Page: 1, Limit: 10}, Filters{Query: "Sidorov"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Sidorov A.A.", clients[0].Name)
}

func TestDeleteClientRemovesRow(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Type: enums.ClientTypeCompany, Name: "OOO Spetsstroy"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID, ActorContext{}))

	var count int64
	require.NoError(t, db.Model(&models.Client{}).Count(&count).Error)
	require.EqualValues(t, 0, count)

	err = svc.Delete(ctx, created.ID, ActorContext{})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
