package projects

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
	require.NoError(t, db.AutoMigrate(&models.Project{}, &models.ProjectTask{}))
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

func seedProject(t *testing.T, db *gorm.DB, mutate func(*models.Project)) *models.Project {
	t.Helper()
	project := &models.Project{
		Name:       "ZhK Severny",
		Type:       enums.ProjectTypeResidential,
		Status:     enums.ProjectStatusPlanning,
		Priority:   enums.PriorityNormal,
		Budget:     decimal.Zero,
		ActualCost: decimal.Zero,
		Progress:   decimal.Zero,
		CreatedBy:  uuid.New(),
	}
	if mutate != nil {
		mutate(project)
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

func reloadProject(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Project {
	t.Helper()
	var project models.Project
	require.NoError(t, db.Where("id = ?", id).First(&project).Error)
	return &project
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

func TestCreateProjectAppliesDefaults(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	created, err := svc.Create(context.Background(), CreateInput{
		Name:  "Sklad Vostok",
		Type:  enums.ProjectTypeIndustrial,
		Actor: ActorContext{UserID: uuid.New()},
	})
	require.NoError(t, err)
	require.Equal(t, enums.ProjectStatusPlanning, created.Status)
	require.Equal(t, enums.PriorityNormal, created.Priority)
	require.True(t, created.Budget.IsZero())
	require.True(t, created.Progress.IsZero())
}

func TestCreateProjectValidation(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	_, err := svc.Create(context.Background(), CreateInput{Name: "  ", Type: enums.ProjectTypeResidential})
	requireErrorCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(context.Background(), CreateInput{Name: "Dom", Type: enums.ProjectType("skyscraper")})
	requireErrorCode(t, err, pkgerrors.CodeValidation)

	negative := decimal.NewFromInt(-1)
	_, err = svc.Create(context.Background(), CreateInput{
		Name:   "Dom",
		Type:   enums.ProjectTypeResidential,
		Budget: &negative,
	})
	requireErrorCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateProjectPartialFields(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)
	project := seedProject(t, db, nil)

	budget := decimal.RequireFromString("2500000")
	updated, err := svc.Update(context.Background(), UpdateInput{
		ProjectID: project.ID,
		Status:    ptr(enums.ProjectStatusConstruction),
		Budget:    &budget,
	})
	require.NoError(t, err)
	require.Equal(t, enums.ProjectStatusConstruction, updated.Status)

	stored := reloadProject(t, db, project.ID)
	require.Equal(t, enums.ProjectStatusConstruction, stored.Status)
	require.True(t, stored.Budget.Equal(budget))
	require.Equal(t, project.Name, stored.Name)
}

func TestGetUnknownProject(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	_, err := svc.Get(context.Background(), uuid.New())
	requireErrorCode(t, err, pkgerrors.CodeNotFound)
}

func TestListProjectsScopedByForeman(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	foremanID := uuid.New()
	mine := seedProject(t, db, func(p *models.Project) {
		p.Name = "Obekt foremana"
		p.ForemanID = &foremanID
	})
	seedProject(t, db, func(p *models.Project) {
		p.Name = "Chuzhoy obekt"
	})

	projects, total, err := svc.List(context.Background(), pagination.Params{}, Filters{}, ActorContext{
		UserID: foremanID,
		Role:   enums.UserRoleForeman,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, projects, 1)
	require.Equal(t, mine.ID, projects[0].ID)

	projects, total, err = svc.List(context.Background(), pagination.Params{}, Filters{}, ActorContext{
		UserID: uuid.New(),
		Role:   enums.UserRoleGeneralDirector,
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, projects, 2)
}

func TestListProjectsFilters(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	seedProject(t, db, func(p *models.Project) {
		p.Name = "ZhK Yuzhny"
		p.Status = enums.ProjectStatusConstruction
	})
	seedProject(t, db, func(p *models.Project) {
		p.Name = "Ofis tsentr"
		p.Type = enums.ProjectTypeCommercial
	})

	status := enums.ProjectStatusConstruction
	projects, total, err := svc.List(context.Background(), pagination.Params{}, Filters{Status: &status}, ActorContext{
		Role: enums.UserRoleAdmin,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "ZhK Yuzhny", projects[0].Name)

	projects, total, err = svc.List(context.Background(), pagination.Params{}, Filters{Query: "Ofis"}, ActorContext{
		Role: enums.UserRoleAdmin,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Ofis tsentr", projects[0].Name)
}

func TestCreateTaskReaveragesProgress(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)
	project := seedProject(t, db, nil)

	start := decimal.RequireFromString("50")
	_, err := svc.CreateTask(context.Background(), CreateTaskInput{
		ProjectID: project.ID,
		Name:      "Zalivka fundamenta",
		Progress:  &start,
		Actor:     ActorContext{UserID: uuid.New()},
	})
	require.NoError(t, err)

	stored := reloadProject(t, db, project.ID)
	require.True(t, stored.Progress.Equal(decimal.RequireFromString("50")),
		"got %s", stored.Progress)

	_, err = svc.CreateTask(context.Background(), CreateTaskInput{
		ProjectID: project.ID,
		Name:      "Montazh karkasa",
		Actor:     ActorContext{UserID: uuid.New()},
	})
	require.NoError(t, err)

	stored = reloadProject(t, db, project.ID)
	require.True(t, stored.Progress.Equal(decimal.RequireFromString("25")),
		"got %s", stored.Progress)
}

func TestCreateTaskUnknownProject(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)

	_, err := svc.CreateTask(context.Background(), CreateTaskInput{
		ProjectID: uuid.New(),
		Name:      "Zadacha",
	})
	requireErrorCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateTaskProgressReaverages(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)
	project := seedProject(t, db, nil)

	task, err := svc.CreateTask(context.Background(), CreateTaskInput{
		ProjectID: project.ID,
		Name:      "Otdelka",
	})
	require.NoError(t, err)

	done := decimal.RequireFromString("100")
	updated, err := svc.UpdateTask(context.Background(), UpdateTaskInput{
		ProjectID: project.ID,
		TaskID:    task.ID,
		Status:    ptr(enums.TaskStatusCompleted),
		Progress:  &done,
	})
	require.NoError(t, err)
	require.Equal(t, enums.TaskStatusCompleted, updated.Status)

	stored := reloadProject(t, db, project.ID)
	require.True(t, stored.Progress.Equal(done), "got %s", stored.Progress)
}

func TestUpdateTaskRejectsOutOfRangeProgress(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)
	project := seedProject(t, db, nil)

	task, err := svc.CreateTask(context.Background(), CreateTaskInput{
		ProjectID: project.ID,
		Name:      "Krovlya",
	})
	require.NoError(t, err)

	over := decimal.RequireFromString("120")
	_, err = svc.UpdateTask(context.Background(), UpdateTaskInput{
		ProjectID: project.ID,
		TaskID:    task.ID,
		Progress:  &over,
	})
	requireErrorCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateTaskWrongProject(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)
	project := seedProject(t, db, nil)
	other := seedProject(t, db, func(p *models.Project) { p.Name = "Drugoy obekt" })

	task, err := svc.CreateTask(context.Background(), CreateTaskInput{
		ProjectID: project.ID,
		Name:      "Razmetka",
	})
	require.NoError(t, err)

	_, err = svc.UpdateTask(context.Background(), UpdateTaskInput{
		ProjectID: other.ID,
		TaskID:    task.ID,
		Name:      ptr("Pereimenovanie"),
	})
	requireErrorCode(t, err, pkgerrors.CodeNotFound)
}

func TestDeleteTaskReaveragesProgress(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)
	project := seedProject(t, db, nil)

	full := decimal.RequireFromString("100")
	keep, err := svc.CreateTask(context.Background(), CreateTaskInput{
		ProjectID: project.ID,
		Name:      "Gotovaya zadacha",
		Progress:  &full,
	})
	require.NoError(t, err)

	drop, err := svc.CreateTask(context.Background(), CreateTaskInput{
		ProjectID: project.ID,
		Name:      "Lishnyaya zadacha",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(context.Background(), project.ID, drop.ID, ActorContext{}))

	stored := reloadProject(t, db, project.ID)
	require.True(t, stored.Progress.Equal(full), "got %s", stored.Progress)

	tasks, err := svc.ListTasks(context.Background(), project.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, keep.ID, tasks[0].ID)
}

func TestDeleteLastTaskResetsProgress(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)
	project := seedProject(t, db, nil)

	full := decimal.RequireFromString("100")
	task, err := svc.CreateTask(context.Background(), CreateTaskInput{
		ProjectID: project.ID,
		Name:      "Edinstvennaya zadacha",
		Progress:  &full,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(context.Background(), project.ID, task.ID, ActorContext{}))

	stored := reloadProject(t, db, project.ID)
	require.True(t, stored.Progress.IsZero(), "got %s", stored.Progress)
}

func TestProjectExists(t *testing.T) {
	db := newServiceDB(t)
	svc := newServiceUnderTest(t, db)
	project := seedProject(t, db, nil)

	exists, err := svc.ProjectExists(context.Background(), project.ID)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = svc.ProjectExists(context.Background(), uuid.New())
	require.NoError(t, err)
	require.False(t, exists)
}
