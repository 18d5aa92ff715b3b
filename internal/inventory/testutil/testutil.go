package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/bitfantasy/eam/internal/inventory/entity"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const TestSchema = "test_eam"

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is cleaned up after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DATABASE_HOST", "127.0.0.1")
	port := getEnv("DATABASE_PORT", "5432")
	user := getEnv("DATABASE_USER", "eam")
	password := getEnv("DATABASE_PASSWORD", "eam123")
	dbname := getEnv("DATABASE_DBNAME", "eam")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// Create a unique test schema for isolation
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	// First: create schema using a temporary connection
	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// Second: open connection with search_path in DSN so ALL pooled connections use test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		// Must match production config so duplicate-key detection behaves the same
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Migrate test tables
	err = db.AutoMigrate(
		&entity.Category{},
		&entity.Subcategory{},
		&entity.Location{},
		&entity.EquipmentLifespan{},
		&entity.UsefulLife{},
		&entity.Equipment{},
		&entity.NumberSequence{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	// Cleanup on test completion
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		// Reconnect to drop the schema
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a handler.Response-like map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedCategory creates a category row
func SeedCategory(t *testing.T, db *gorm.DB, name, code string) *entity.Category {
	t.Helper()
	c := &entity.Category{Name: name, Code: code}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("Failed to seed category: %v", err)
	}
	return c
}

// SeedSubcategory creates a subcategory row
func SeedSubcategory(t *testing.T, db *gorm.DB, name string, categoryID int) *entity.Subcategory {
	t.Helper()
	sc := &entity.Subcategory{Name: name, CategoryID: categoryID}
	if err := db.Create(sc).Error; err != nil {
		t.Fatalf("Failed to seed subcategory: %v", err)
	}
	return sc
}

// SeedLocation creates a location row
func SeedLocation(t *testing.T, db *gorm.DB, code, name string) *entity.Location {
	t.Helper()
	loc := &entity.Location{Code: code, Name: name}
	if err := db.Create(loc).Error; err != nil {
		t.Fatalf("Failed to seed location: %v", err)
	}
	return loc
}

// SeedUsefulLife creates a tier-1 useful-life rule for a subcategory
func SeedUsefulLife(t *testing.T, db *gorm.DB, subcategoryID, years int) *entity.UsefulLife {
	t.Helper()
	ul := &entity.UsefulLife{SubcategoryID: subcategoryID, UsefulYears: &years}
	if err := db.Create(ul).Error; err != nil {
		t.Fatalf("Failed to seed useful life: %v", err)
	}
	return ul
}

// SeedLifespanRule creates a legacy tier-2 lifespan rule
func SeedLifespanRule(t *testing.T, db *gorm.DB, categoryCode, itemCode string, years int) *entity.EquipmentLifespan {
	t.Helper()
	rule := &entity.EquipmentLifespan{CategoryCode: categoryCode, ItemCode: itemCode, LifespanYears: years}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("Failed to seed lifespan rule: %v", err)
	}
	return rule
}

// SeedEquipment creates an equipment row with the given management number
func SeedEquipment(t *testing.T, db *gorm.DB, number, name string) *entity.Equipment {
	t.Helper()
	now := time.Now()
	eq := &entity.Equipment{
		ManagementNumber: number,
		Name:             name,
		Quantity:         1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := db.Create(eq).Error; err != nil {
		t.Fatalf("Failed to seed equipment: %v", err)
	}
	return eq
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
