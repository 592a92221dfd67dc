package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/conselho-tutelar/atendimento-service/internal/config"
	"github.com/conselho-tutelar/atendimento-service/internal/database"
	"github.com/conselho-tutelar/atendimento-service/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory SQLite database with every table migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{DBDriver: config.DriverSQLite, DatabaseURL: "file::memory:?_foreign_keys=on"}
	db, err := database.Connect(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, login string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Name: name, Login: login, Password: "hash", Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedCase(t *testing.T, db *gorm.DB, childName, status string, opened time.Time, counselorID *int64) *models.Case {
	t.Helper()
	child := &models.Child{Name: childName}
	require.NoError(t, db.Create(child).Error)
	c := &models.Case{
		OpeningDate:  opened,
		Status:       status,
		ChildID:      child.ID,
		RegisteredAt: opened,
		CounselorID:  counselorID,
	}
	require.NoError(t, db.Omit("Child", "Counselor", "Guardians").Create(c).Error)
	return c
}

// =============================================================================
// UserRepository
// =============================================================================

func TestUserRepository_CreateDuplicateLogin(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Name: "Ana", Login: "ana", Password: "h", Role: models.RoleCounselor}))
	err := repo.Create(ctx, &models.User{Name: "Ana 2", Login: "ana", Password: "h", Role: models.RoleSecretary})
	require.ErrorIs(t, err, ErrDuplicate)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestUserRepository_ListSortedByName(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "Carla", "carla", models.RoleCounselor)
	seedUser(t, db, "Bruno", "bruno", models.RoleSecretary)
	seedUser(t, db, "Ana", "ana", models.RoleCounselor)

	users, err := NewUserRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)
	require.Equal(t, "Ana", users[0].Name)
	require.Equal(t, "Carla", users[2].Name)
	require.Empty(t, users[0].Password, "password must not be selected")
}

func TestUserRepository_ListByRole(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "Carla", "carla", models.RoleCounselor)
	seedUser(t, db, "Bruno", "bruno", models.RoleSecretary)

	users, err := NewUserRepository(db).ListByRole(context.Background(), models.RoleCounselor)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "Carla", users[0].Name)
}

func TestUserRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	ana := seedUser(t, db, "Ana", "ana", models.RoleCounselor)
	seedUser(t, db, "Bruno", "bruno", models.RoleSecretary)

	ana.Name = "Ana Maria"
	ana.Role = models.RoleAdministrator
	require.NoError(t, repo.Update(ctx, ana))

	got, err := repo.FindByID(ctx, ana.ID)
	require.NoError(t, err)
	require.Equal(t, "Ana Maria", got.Name)
	require.Equal(t, models.RoleAdministrator, got.Role)
	require.Equal(t, "hash", got.Password)

	ana.Login = "bruno"
	require.ErrorIs(t, repo.Update(ctx, ana), ErrDuplicate)

	require.ErrorIs(t, repo.Update(ctx, &models.User{ID: 999, Name: "x", Login: "x", Role: models.RoleCounselor}), ErrNotFound)
}

func TestUserRepository_DeleteReferenced(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	counselor := seedUser(t, db, "Carla", "carla", models.RoleCounselor)
	seedCase(t, db, "Ana", models.StatusInProgress, time.Now(), &counselor.ID)

	err := repo.Delete(ctx, counselor.ID)
	require.ErrorIs(t, err, ErrReferenced)

	_, err = repo.FindByID(ctx, counselor.ID)
	require.NoError(t, err, "user must remain after a blocked delete")
}

func TestUserRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "Bruno", "bruno", models.RoleSecretary)

	require.NoError(t, repo.Delete(ctx, user.ID))
	_, err := repo.FindByID(ctx, user.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, repo.Delete(ctx, user.ID), ErrNotFound)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "Bruno", "bruno", models.RoleSecretary)

	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "new-hash"))
	got, err := repo.FindByLogin(ctx, "bruno")
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.Password)

	require.ErrorIs(t, repo.UpdatePassword(ctx, 999, "x"), ErrNotFound)
}

// =============================================================================
// CaseRepository
// =============================================================================

func TestCaseRepository_TransactionRollsBack(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCaseRepository(db)
	boom := errors.New("guardian insert failed")

	err := repo.Transaction(context.Background(), func(w CaseWriter) error {
		address := &models.Address{Street: "Rua A", City: "Campinas", State: "SP"}
		if err := w.CreateAddress(address); err != nil {
			return err
		}
		child := &models.Child{Name: "Ana"}
		if err := w.CreateChild(child); err != nil {
			return err
		}
		c := &models.Case{OpeningDate: time.Now(), Status: models.StatusInProgress, ChildID: child.ID, RegisteredAt: time.Now()}
		if err := w.CreateCase(c); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	for _, table := range []interface{}{&models.Address{}, &models.Child{}, &models.Case{}, &models.Guardian{}} {
		var count int64
		require.NoError(t, db.Model(table).Count(&count).Error)
		require.Zero(t, count, "%T rows must be rolled back", table)
	}
}

func TestCaseRepository_ListFiltersStatusIgnoringCase(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCaseRepository(db)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	counselor := seedUser(t, db, "Carla", "carla", models.RoleCounselor)

	seedCase(t, db, "Ana", "Em Andamento", day, &counselor.ID)
	seedCase(t, db, "Bia", "Em andamento", day.AddDate(0, 0, 1), nil)
	seedCase(t, db, "Caio", models.StatusFinalized, day.AddDate(0, 0, 2), nil)

	items, err := repo.List(context.Background(), "Em andamento")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Bia", items[0].ChildName, "most recent first")
	require.Nil(t, items[0].CounselorName)
	require.Equal(t, "Ana", items[1].ChildName)
	require.NotNil(t, items[1].CounselorName)
	require.Equal(t, "Carla", *items[1].CounselorName)

	all, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "Caio", all[0].ChildName)
}

func TestCaseRepository_ListEmptyIsNotNil(t *testing.T) {
	items, err := NewCaseRepository(setupTestDB(t)).List(context.Background(), "Arquivado")
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}

func TestCaseRepository_FindDetailAggregatesGuardians(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCaseRepository(db)
	counselor := seedUser(t, db, "Carla", "carla", models.RoleCounselor)
	c := seedCase(t, db, "Ana", models.StatusInProgress, time.Now(), &counselor.ID)

	address := &models.Address{Street: "Rua A", Number: "10", Neighborhood: "Centro", City: "Campinas", State: "SP", PostalCode: "13000-000"}
	require.NoError(t, db.Create(address).Error)
	for _, g := range []models.Guardian{
		{Name: "João", Kinship: models.KinshipFather, Phone: "1999", AddressID: &address.ID, CaseID: c.ID},
		{Name: "Maria", Kinship: models.KinshipMother, Phone: "1999", AddressID: &address.ID, CaseID: c.ID},
	} {
		g := g
		require.NoError(t, db.Omit("Address").Create(&g).Error)
	}

	detail, err := repo.FindDetail(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, "Ana", detail.ChildName)
	require.Equal(t, "Carla", *detail.CounselorName)
	require.Equal(t, []string{"João (Pai)", "Maria (Mãe)"}, detail.GuardianNames)
	require.Equal(t, []string{"1999"}, detail.GuardianPhones)
	require.Equal(t, []string{"Rua A, 10, Centro, Campinas-SP 13000-000"}, detail.Addresses)
}

func TestCaseRepository_FindDetailNotFound(t *testing.T) {
	_, err := NewCaseRepository(setupTestDB(t)).FindDetail(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCaseRepository_UpdatePartial(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCaseRepository(db)
	ctx := context.Background()
	counselor := seedUser(t, db, "Carla", "carla", models.RoleCounselor)
	c := seedCase(t, db, "Ana", models.StatusInProgress, time.Now(), &counselor.ID)
	require.NoError(t, db.Model(c).Update("medidas_adotadas", "encaminhamento").Error)

	desc := "nova descrição"
	require.NoError(t, repo.Update(ctx, c.ID, CaseUpdate{Description: &desc}))

	detail, err := repo.FindDetail(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, desc, detail.Description)
	require.Equal(t, "encaminhamento", detail.Measures, "fields not supplied stay untouched")
	require.NotNil(t, detail.CounselorID)

	require.NoError(t, repo.Update(ctx, c.ID, CaseUpdate{SetCounselor: true}))
	detail, err = repo.FindDetail(ctx, c.ID)
	require.NoError(t, err)
	require.Nil(t, detail.CounselorID, "counselor cleared")

	require.ErrorIs(t, repo.Update(ctx, 999, CaseUpdate{Description: &desc}), ErrNotFound)
}

func TestCaseRepository_Finalize(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCaseRepository(db)
	ctx := context.Background()
	c := seedCase(t, db, "Ana", models.StatusInProgress, time.Now(), nil)
	closedAt := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)

	require.NoError(t, repo.Finalize(ctx, c.ID, closedAt))

	detail, err := repo.FindDetail(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusFinalized, detail.Status)
	require.NotNil(t, detail.ClosedAt)
	require.True(t, detail.ClosedAt.Equal(closedAt))

	require.ErrorIs(t, repo.Finalize(ctx, 999, closedAt), ErrNotFound)
}

func TestCaseRepository_CountStatusAndNormalize(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCaseRepository(db)
	ctx := context.Background()
	now := time.Now()
	seedCase(t, db, "Ana", "Em Andamento", now, nil)
	seedCase(t, db, "Bia", "em andamento", now, nil)
	seedCase(t, db, "Caio", "finalizado", now, nil)

	open, err := repo.CountStatus(ctx, models.StatusInProgress, true)
	require.NoError(t, err)
	require.Equal(t, int64(2), open)

	closed, err := repo.CountStatus(ctx, models.StatusInProgress, false)
	require.NoError(t, err)
	require.Equal(t, int64(1), closed)

	changed, err := repo.NormalizeStatuses(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), changed)

	var statuses []string
	require.NoError(t, db.Model(&models.Case{}).Order("id_caso").Pluck("status", &statuses).Error)
	require.Equal(t, []string{"Em Andamento", "Em Andamento", "Finalizado"}, statuses)
}

func TestCaseUpdateEmpty(t *testing.T) {
	require.True(t, CaseUpdate{}.Empty())
	s := "x"
	require.False(t, CaseUpdate{Status: &s}.Empty())
	require.False(t, CaseUpdate{SetCounselor: true}.Empty())
}
