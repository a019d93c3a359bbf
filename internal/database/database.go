package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/clipguard/videofp/internal/metrics"
	"github.com/clipguard/videofp/internal/models"
	"github.com/clipguard/videofp/internal/telemetry"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection.
var DB *gorm.DB

// Initialize creates and configures the database connection. DATABASE_URL
// is used verbatim when set; otherwise the component DB_* vars are
// assembled into a Postgres DSN. A DSN prefixed with "sqlite:" opens the
// SQLite driver instead, for tests and local development without a
// Postgres instance.
func Initialize(databaseURL string) error {
	if databaseURL == "" {
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "videofp")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	gormConfig := &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var db *gorm.DB
	var err error
	if sqlitePath, ok := sqliteDSN(databaseURL); ok {
		db, err = gorm.Open(sqlite.Open(sqlitePath), gormConfig)
	} else {
		db, err = gorm.Open(postgres.Open(databaseURL), gormConfig)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db

	registerMetricsHooks(db)
	if err := db.Use(telemetry.GORMTracingPlugin()); err != nil {
		return fmt.Errorf("failed to register tracing plugin: %w", err)
	}

	log.Println("database connected")

	return nil
}

// sqliteDSN strips a "sqlite:" prefix, signalling the SQLite driver should
// be used instead of Postgres.
func sqliteDSN(url string) (string, bool) {
	const prefix = "sqlite:"
	if len(url) > len(prefix) && url[:len(prefix)] == prefix {
		return url[len(prefix):], true
	}
	return "", false
}

// Migrate auto-migrates the four relations named in spec.md §6: videos,
// video_hashes, video_lsh_bands, audio_hashes.
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	err := DB.AutoMigrate(
		&models.Video{},
		&models.VideoHash{},
		&models.VideoLSHBand{},
		&models.AudioHash{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("database migrations completed")
	return nil
}

// createIndexes adds the composite lookup indexes backing the three hash
// indexes of spec.md §3 (frame_hash_index, band_index, audio_hash_index),
// plus a partial index on videos.original_video_id, that GORM's struct
// tags can't express directly. CREATE INDEX IF NOT EXISTS runs the same
// under Postgres and SQLite; errors from these statements are not
// checked, and createIndexes always returns nil.
func createIndexes() error {
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_video_hashes_lookup ON video_hashes (hash_value, video_id, frame_index)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_video_lsh_bands_lookup ON video_lsh_bands (band_index, band_value, video_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_audio_hashes_lookup ON audio_hashes (hash, video_id, time_offset)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_videos_original ON videos (original_video_id) WHERE original_video_id IS NOT NULL")
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// registerMetricsHooks registers GORM callbacks recording query timing and
// outcome per operation, the same shape as the teacher's hooks, rebound to
// this service's metrics registry.
func registerMetricsHooks(db *gorm.DB) {
	db.Callback().Create().Before("gorm:before_create").Register("metrics:before_create", func(db *gorm.DB) {
		db.InstanceSet("metrics:start_time", time.Now())
	})
	db.Callback().Create().After("gorm:after_create").Register("metrics:after_create", func(db *gorm.DB) {
		if start, ok := db.InstanceGet("metrics:start_time"); ok {
			duration := time.Since(start.(time.Time)).Seconds()
			metrics.Get().DatabaseQueryDuration.WithLabelValues("create", "insert").Observe(duration)
			status := "success"
			if db.Error != nil {
				status = "error"
			}
			metrics.Get().DatabaseQueriesTotal.WithLabelValues("create", "insert", status).Inc()
		}
	})

	db.Callback().Query().Before("gorm:before_query").Register("metrics:before_query", func(db *gorm.DB) {
		db.InstanceSet("metrics:start_time", time.Now())
	})
	db.Callback().Query().After("gorm:after_query").Register("metrics:after_query", func(db *gorm.DB) {
		if start, ok := db.InstanceGet("metrics:start_time"); ok {
			duration := time.Since(start.(time.Time)).Seconds()
			metrics.Get().DatabaseQueryDuration.WithLabelValues("query", "select").Observe(duration)
			status := "success"
			if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
				status = "error"
			}
			metrics.Get().DatabaseQueriesTotal.WithLabelValues("query", "select", status).Inc()
		}
	})

	db.Callback().Update().Before("gorm:before_update").Register("metrics:before_update", func(db *gorm.DB) {
		db.InstanceSet("metrics:start_time", time.Now())
	})
	db.Callback().Update().After("gorm:after_update").Register("metrics:after_update", func(db *gorm.DB) {
		if start, ok := db.InstanceGet("metrics:start_time"); ok {
			duration := time.Since(start.(time.Time)).Seconds()
			metrics.Get().DatabaseQueryDuration.WithLabelValues("update", "update").Observe(duration)
			status := "success"
			if db.Error != nil {
				status = "error"
			}
			metrics.Get().DatabaseQueriesTotal.WithLabelValues("update", "update", status).Inc()
		}
	})

	db.Callback().Delete().Before("gorm:before_delete").Register("metrics:before_delete", func(db *gorm.DB) {
		db.InstanceSet("metrics:start_time", time.Now())
	})
	db.Callback().Delete().After("gorm:after_delete").Register("metrics:after_delete", func(db *gorm.DB) {
		if start, ok := db.InstanceGet("metrics:start_time"); ok {
			duration := time.Since(start.(time.Time)).Seconds()
			metrics.Get().DatabaseQueryDuration.WithLabelValues("delete", "delete").Observe(duration)
			status := "success"
			if db.Error != nil {
				status = "error"
			}
			metrics.Get().DatabaseQueriesTotal.WithLabelValues("delete", "delete", status).Inc()
		}
	})
}
