package database

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/config"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	embeddedDataPath = "./db_data"
	embeddedPort     = 5433
)

// DB wraps gorm.DB and includes a reference to an embedded process if active
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
}

// stopStalePostgres stops a postmaster left behind by a crashed run so the
// embedded instance can bind its port again.
func stopStalePostgres() {
	pidFile := filepath.Join(embeddedDataPath, "postmaster.pid")
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return
	}

	firstLine, _, _ := strings.Cut(string(data), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(firstLine))
	if err != nil {
		log.Printf("⚠️  Could not parse PID from postmaster.pid: %v", err)
		return
	}

	process, err := os.FindProcess(pid)
	if err != nil || process.Signal(syscall.Signal(0)) != nil {
		log.Printf("🧹 Removing stale postmaster.pid (PID %d not running)", pid)
		os.Remove(pidFile)
		return
	}

	log.Printf("⚠️  Found orphaned PostgreSQL process (PID %d), stopping it", pid)
	_ = process.Signal(syscall.SIGTERM)
	for i := 0; i < 10; i++ {
		time.Sleep(500 * time.Millisecond)
		if process.Signal(syscall.Signal(0)) != nil {
			os.Remove(pidFile)
			return
		}
	}
	process.Kill()
	time.Sleep(500 * time.Millisecond)
	os.Remove(pidFile)
}

func isPortInUse(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Connect opens the configured database. Postgres on localhost without a
// password starts an embedded instance; driver "sqlite" opens a local file.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	logLevel := logger.Warn
	if cfg.Silent {
		logLevel = logger.Silent
	}
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var (
		dialector gorm.Dialector
		embedded  *embeddedpostgres.EmbeddedPostgres
	)

	switch cfg.Driver {
	case "sqlite":
		// Foreign keys on, and a busy timeout so parallel writers wait instead of failing.
		dialector = sqlite.Open(cfg.Path + "?_foreign_keys=on&_busy_timeout=5000")
	case "postgres", "":
		password := cfg.Password
		if cfg.Host == "localhost" && cfg.Password == "" {
			var err error
			embedded, err = startEmbedded(cfg)
			if err != nil {
				return nil, err
			}
			cfg.Port = strconv.Itoa(embeddedPort)
			password = "postgres"
		} else {
			log.Printf("🌐 Mode: [External PostgreSQL] - Connecting to %s:%s\n", cfg.Host, cfg.Port)
		}
		dialector = postgres.Open(fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.Username, password, cfg.Database,
		))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		if embedded != nil {
			_ = embedded.Stop()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Use(NewTenantScopePlugin()); err != nil {
		return nil, fmt.Errorf("failed to install tenant scope plugin: %w", err)
	}

	sqlDB, err := db.DB()
	if err == nil {
		if cfg.Driver == "sqlite" {
			sqlDB.SetMaxOpenConns(1)
		} else {
			sqlDB.SetMaxIdleConns(10)
			sqlDB.SetMaxOpenConns(100)
			sqlDB.SetConnMaxLifetime(time.Hour)
		}
	}

	return &DB{DB: db, embedded: embedded}, nil
}

func startEmbedded(cfg config.DatabaseConfig) (*embeddedpostgres.EmbeddedPostgres, error) {
	log.Println("📦 Mode: [Embedded PostgreSQL] - Initializing internal database...")
	stopStalePostgres()

	if isPortInUse(embeddedPort) {
		for i := 0; i < 6 && isPortInUse(embeddedPort); i++ {
			time.Sleep(500 * time.Millisecond)
		}
		if isPortInUse(embeddedPort) {
			return nil, fmt.Errorf("port %d is still in use by another process", embeddedPort)
		}
	}

	embedded := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		DataPath(embeddedDataPath).
		Port(uint32(embeddedPort)).
		Database(cfg.Database).
		Username(cfg.Username).
		Password("postgres"))

	if err := embedded.Start(); err != nil {
		return nil, fmt.Errorf("failed to start embedded database: %w", err)
	}
	log.Printf("✅ Embedded PostgreSQL process started on port %d", embeddedPort)
	return embedded, nil
}

// Close ensures the database connection and embedded process are shut down
func (db *DB) Close() error {
	if db.embedded != nil {
		log.Println("🛑 Stopping Embedded PostgreSQL process...")
		_ = db.embedded.Stop()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate synchronizes the schema of every persisted model
func (db *DB) Migrate() error {
	return db.DB.AutoMigrate(
		&models.Warehouse{},
		&models.Customer{},
		&models.PayingCustomer{},
		&models.SKU{},
		&models.ContainerBooking{},
		&models.ContainerDetail{},
		&models.ContainerStockAllocation{},
		&models.InboundJob{},
		&models.UnitLoadRecord{},
		&models.PickupEntry{},
		&models.LPNSequence{},
	)
}
