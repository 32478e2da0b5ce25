package services

import (
	"fmt"
	"testing"

	"quizadmin/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique shared-cache name so each test gets its own in-memory database
	// that survives across pooled connections.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.SystemBootstrap{},
		&models.Category{},
		&models.Quiz{},
		&models.Notification{},
	))
	return db
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func strptr(s string) *string {
	return &s
}

func syncTestUser(t *testing.T, users *UserService, subject string) *models.User {
	t.Helper()
	user, err := users.SyncUser(&IdentityClaims{
		Subject: subject,
		Email:   subject + "@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}
