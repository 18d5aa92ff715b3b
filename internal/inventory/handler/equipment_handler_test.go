package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/bitfantasy/eam/internal/inventory/entity"
	"github.com/bitfantasy/eam/internal/inventory/repository"
	"github.com/bitfantasy/eam/internal/inventory/service"
	"github.com/bitfantasy/eam/internal/inventory/testutil"
)

func setupEquipmentTest(t *testing.T) (*testutil.TestEnv, *repository.Repositories) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, nil)
	handlers := NewHandlers(services, repos)

	api := router.Group("/api/v1")
	api.GET("/equipments", handlers.Equipment.List)
	api.POST("/equipments", handlers.Equipment.Create)
	api.GET("/equipments/:id", handlers.Equipment.Get)
	api.PUT("/equipments/:id", handlers.Equipment.Update)
	api.PUT("/equipments/:id/location", handlers.Equipment.UpdateLocation)
	api.DELETE("/equipments/:id", handlers.Equipment.Delete)
	api.POST("/equipments/batch-delete", handlers.Equipment.DeleteBatch)
	api.GET("/categories", handlers.Reference.ListCategories)
	api.GET("/categories/:id/subcategories", handlers.Reference.ListSubcategories)
	api.GET("/locations", handlers.Reference.ListLocations)

	return &testutil.TestEnv{DB: db, Router: router, T: t}, repos
}

func createEquipment(t *testing.T, env *testutil.TestEnv, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/equipments", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	return resp["data"].(map[string]interface{})
}

func TestCreateIssuesSequentialManagementNumbers(t *testing.T) {
	env, _ := setupEquipmentTest(t)
	it := testutil.SeedCategory(t, env.DB, "IT Equipment", "ITC")
	year := time.Now().Year()

	first := createEquipment(t, env, map[string]interface{}{
		"category_code": strconv.Itoa(it.ID),
		"name":          "Laptop A",
		"cost":          150000,
	})
	want := fmt.Sprintf("ITC%d-0001", year)
	if first["management_number"] != want {
		t.Errorf("first number = %v, want %s", first["management_number"], want)
	}

	second := createEquipment(t, env, map[string]interface{}{
		"category_code": strconv.Itoa(it.ID),
		"name":          "Laptop B",
		"cost":          120000,
	})
	want = fmt.Sprintf("ITC%d-0002", year)
	if second["management_number"] != want {
		t.Errorf("second number = %v, want %s", second["management_number"], want)
	}
}

func TestCreateContinuesFromExistingNumbers(t *testing.T) {
	env, _ := setupEquipmentTest(t)
	it := testutil.SeedCategory(t, env.DB, "IT Equipment", "ITC")
	year := time.Now().Year()

	testutil.SeedEquipment(t, env.DB, fmt.Sprintf("ITC%d-0001", year), "existing A")
	testutil.SeedEquipment(t, env.DB, fmt.Sprintf("ITC%d-0002", year), "existing B")

	created := createEquipment(t, env, map[string]interface{}{
		"category_code": strconv.Itoa(it.ID),
		"name":          "Laptop C",
		"cost":          100000,
	})
	want := fmt.Sprintf("ITC%d-0003", year)
	if created["management_number"] != want {
		t.Errorf("number = %v, want %s", created["management_number"], want)
	}
}

func TestCreateFallsBackToDefaultCategoryCode(t *testing.T) {
	env, _ := setupEquipmentTest(t)
	year := time.Now().Year()

	// Unresolvable category id falls back to the default "EQ" prefix
	created := createEquipment(t, env, map[string]interface{}{
		"category_code": "9999",
		"name":          "Mystery Device",
		"cost":          5000,
	})
	want := fmt.Sprintf("EQ%d-0001", year)
	if created["management_number"] != want {
		t.Errorf("number = %v, want %s", created["management_number"], want)
	}

	// Non-numeric category code gets the same fallback
	created = createEquipment(t, env, map[string]interface{}{
		"category_code": "not-a-number",
		"name":          "Another Device",
		"cost":          5000,
	})
	want = fmt.Sprintf("EQ%d-0002", year)
	if created["management_number"] != want {
		t.Errorf("number = %v, want %s", created["management_number"], want)
	}
}

func TestUpdateKeepsManagementNumber(t *testing.T) {
	env, _ := setupEquipmentTest(t)
	it := testutil.SeedCategory(t, env.DB, "IT Equipment", "ITC")

	created := createEquipment(t, env, map[string]interface{}{
		"category_code": strconv.Itoa(it.ID),
		"name":          "Laptop",
		"cost":          90000,
	})
	number := created["management_number"].(string)
	id := int(created["id"].(float64))

	w := testutil.DoRequest(env.Router, "PUT", fmt.Sprintf("/api/v1/equipments/%d", id),
		map[string]interface{}{
			"name": "Laptop renamed",
			"cost": 80000,
		})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["management_number"] != number {
		t.Errorf("management number changed on update: %v -> %v", number, data["management_number"])
	}
	if data["name"] != "Laptop renamed" {
		t.Errorf("name = %v, want Laptop renamed", data["name"])
	}
}

func TestListViewCarriesEnrichment(t *testing.T) {
	env, _ := setupEquipmentTest(t)
	it := testutil.SeedCategory(t, env.DB, "IT Equipment", "ITC")
	pc := testutil.SeedSubcategory(t, env.DB, "Computer", it.ID)
	testutil.SeedUsefulLife(t, env.DB, pc.ID, 4)
	testutil.SeedLocation(t, env.DB, "MO", "Head Office")

	createEquipment(t, env, map[string]interface{}{
		"category_code": strconv.Itoa(it.ID),
		"item_code":     strconv.Itoa(pc.ID),
		"name":          "Laptop",
		"cost":          150000,
		"purchase_date": time.Now().AddDate(-1, 0, 0).Format("2006-01-02"),
		"location_code": "MO",
	})

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/equipments", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	items := resp["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	view := items[0].(map[string]interface{})

	if view["location_label"] != "Head Office" {
		t.Errorf("location_label = %v, want Head Office", view["location_label"])
	}
	if view["category_name"] != "IT Equipment" {
		t.Errorf("category_name = %v, want IT Equipment", view["category_name"])
	}
	if view["subcategory_name"] != "Computer" {
		t.Errorf("subcategory_name = %v, want Computer", view["subcategory_name"])
	}
	if view["lifespan_years"].(float64) != 4 {
		t.Errorf("lifespan_years = %v, want 4", view["lifespan_years"])
	}
	if view["elapsed_years"].(float64) != 1 {
		t.Errorf("elapsed_years = %v, want 1", view["elapsed_years"])
	}
	if view["annual_depreciation"].(float64) != 37500 {
		t.Errorf("annual_depreciation = %v, want 37500", view["annual_depreciation"])
	}
	if view["book_value"].(float64) != 112500 {
		t.Errorf("book_value = %v, want 112500", view["book_value"])
	}
	if view["depreciation_status"] != "37500.00" {
		t.Errorf("depreciation_status = %v, want 37500.00", view["depreciation_status"])
	}
}

func TestSubcategoryRuleWinsOverPairRule(t *testing.T) {
	env, _ := setupEquipmentTest(t)
	it := testutil.SeedCategory(t, env.DB, "IT Equipment", "ITC")
	pc := testutil.SeedSubcategory(t, env.DB, "Computer", it.ID)

	// Both tiers can answer for this asset; the subcategory rule must win
	testutil.SeedUsefulLife(t, env.DB, pc.ID, 6)
	testutil.SeedLifespanRule(t, env.DB, strconv.Itoa(it.ID), strconv.Itoa(pc.ID), 10)

	created := createEquipment(t, env, map[string]interface{}{
		"category_code": strconv.Itoa(it.ID),
		"item_code":     strconv.Itoa(pc.ID),
		"name":          "Laptop",
		"cost":          60000,
		"purchase_date": time.Now().AddDate(-1, 0, 0).Format("2006-01-02"),
	})
	if created["lifespan_years"].(float64) != 6 {
		t.Errorf("lifespan_years = %v, want 6 (tier-1 precedence)", created["lifespan_years"])
	}
}

func TestLegacyCodePairResolution(t *testing.T) {
	env, repos := setupEquipmentTest(t)
	testutil.SeedLifespanRule(t, env.DB, "ITC", "PC", 4)

	// Legacy row: letter codes instead of numeric ids
	eq := testutil.SeedEquipment(t, env.DB, "ITC2020-0001", "Old PC")
	eq.CategoryCode = "ITC"
	eq.ItemCode = "PC"
	purchase := time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)
	eq.PurchaseDate = &purchase
	eq.Cost = 100000
	if err := repos.Equipment.Update(context.Background(), eq); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	w := testutil.DoRequest(env.Router, "GET", fmt.Sprintf("/api/v1/equipments/%d", eq.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	view := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if view["lifespan_years"].(float64) != 4 {
		t.Errorf("lifespan_years = %v, want 4 (pair rule)", view["lifespan_years"])
	}
	// No rule table carries names for letter codes: enrichment silently skipped
	if _, ok := view["category_name"]; ok {
		t.Errorf("category_name should be absent for legacy codes, got %v", view["category_name"])
	}
}

func TestUnknownLifespanKeepsFullBookValue(t *testing.T) {
	env, _ := setupEquipmentTest(t)
	it := testutil.SeedCategory(t, env.DB, "IT Equipment", "ITC")

	created := createEquipment(t, env, map[string]interface{}{
		"category_code": strconv.Itoa(it.ID),
		"name":          "Unclassified Device",
		"cost":          10000,
		"purchase_date": "2020-01-01",
	})
	if created["lifespan_years"].(float64) != 0 {
		t.Errorf("lifespan_years = %v, want 0", created["lifespan_years"])
	}
	if created["depreciation_status"] != service.DepreciationStatusUnknown {
		t.Errorf("status = %v, want unknown marker", created["depreciation_status"])
	}
	if created["book_value"].(float64) != 10000 {
		t.Errorf("book_value = %v, want 10000", created["book_value"])
	}
}

func TestSearchModes(t *testing.T) {
	env, _ := setupEquipmentTest(t)
	testutil.SeedLocation(t, env.DB, "MO", "Head Office")
	testutil.SeedLocation(t, env.DB, "BR", "Branch Office")

	seedAt := func(number, name, location string) {
		eq := testutil.SeedEquipment(t, env.DB, number, name)
		eq.LocationCode = location
		if err := env.DB.Save(eq).Error; err != nil {
			t.Fatalf("seed location update failed: %v", err)
		}
	}
	seedAt("EQ2024-0001", "Laptop PC", "MO")
	seedAt("EQ2024-0002", "Office Desk", "BR")
	seedAt("EQ2024-0003", "Desk Lamp", "MO")

	listItems := func(query string) []interface{} {
		w := testutil.DoRequest(env.Router, "GET", "/api/v1/equipments?"+query, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200 for %q, got %d: %s", query, w.Code, w.Body.String())
		}
		return testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	}

	if items := listItems("search_type=location&location=MO"); len(items) != 2 {
		t.Errorf("location=MO: got %d items, want 2", len(items))
	}
	// Case-insensitive partial name match
	if items := listItems("search_type=name&name=desk"); len(items) != 2 {
		t.Errorf("name=desk: got %d items, want 2", len(items))
	}
	// Name search without a name returns nothing
	if items := listItems("search_type=name"); len(items) != 0 {
		t.Errorf("name search without name: got %d items, want 0", len(items))
	}
	if items := listItems("search_type=both&location=MO&name=desk"); len(items) != 1 {
		t.Errorf("both: got %d items, want 1", len(items))
	}
	// Both with only a location degrades to a location search
	if items := listItems("search_type=both&location=BR"); len(items) != 1 {
		t.Errorf("both degraded to location: got %d items, want 1", len(items))
	}
	if items := listItems("search_type=both"); len(items) != 3 {
		t.Errorf("both without params: got %d items, want 3", len(items))
	}
}

func TestListPagination(t *testing.T) {
	env, _ := setupEquipmentTest(t)
	for i := 1; i <= 5; i++ {
		testutil.SeedEquipment(t, env.DB, fmt.Sprintf("EQ2024-%04d", i), fmt.Sprintf("Device %d", i))
	}

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/equipments?page=2&page_size=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	if len(items) != 2 {
		t.Errorf("page 2: got %d items, want 2", len(items))
	}
	pagination := data["pagination"].(map[string]interface{})
	if pagination["total"].(float64) != 5 {
		t.Errorf("total = %v, want 5", pagination["total"])
	}
	if pagination["total_pages"].(float64) != 3 {
		t.Errorf("total_pages = %v, want 3", pagination["total_pages"])
	}
}

func TestUpdateLocation(t *testing.T) {
	env, _ := setupEquipmentTest(t)
	testutil.SeedLocation(t, env.DB, "MO", "Head Office")
	testutil.SeedLocation(t, env.DB, "BR", "Branch Office")

	it := testutil.SeedCategory(t, env.DB, "IT Equipment", "ITC")
	created := createEquipment(t, env, map[string]interface{}{
		"category_code": strconv.Itoa(it.ID),
		"name":          "Laptop",
		"cost":          50000,
		"location_code": "MO",
	})
	id := int(created["id"].(float64))

	w := testutil.DoRequest(env.Router, "PUT", fmt.Sprintf("/api/v1/equipments/%d/location", id),
		map[string]interface{}{"location_code": "BR"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "GET", fmt.Sprintf("/api/v1/equipments/%d", id), nil)
	view := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if view["location_code"] != "BR" {
		t.Errorf("location_code = %v, want BR", view["location_code"])
	}
	if view["location_label"] != "Branch Office" {
		t.Errorf("location_label = %v, want Branch Office", view["location_label"])
	}

	// Moving to an unregistered location is rejected
	w = testutil.DoRequest(env.Router, "PUT", fmt.Sprintf("/api/v1/equipments/%d/location", id),
		map[string]interface{}{"location_code": "XX"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown location, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBatchDelete(t *testing.T) {
	env, repos := setupEquipmentTest(t)
	a := testutil.SeedEquipment(t, env.DB, "EQ2024-0001", "A")
	b := testutil.SeedEquipment(t, env.DB, "EQ2024-0002", "B")
	c := testutil.SeedEquipment(t, env.DB, "EQ2024-0003", "C")

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/equipments/batch-delete",
		map[string]interface{}{"ids": []int{a.ID, c.ID}})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	total, err := repos.Equipment.Count(context.Background())
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if total != 1 {
		t.Errorf("remaining = %d, want 1", total)
	}
	if _, err := repos.Equipment.FindByID(context.Background(), b.ID); err != nil {
		t.Errorf("surviving row should still load: %v", err)
	}
}

func TestGetMissingEquipmentReturns404(t *testing.T) {
	env, _ := setupEquipmentTest(t)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/equipments/12345", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "PUT", "/api/v1/equipments/12345",
		map[string]interface{}{"name": "ghost"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on update, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDuplicateManagementNumberIsConflict(t *testing.T) {
	env, _ := setupEquipmentTest(t)
	prefix := fmt.Sprintf("EQ%d-", time.Now().Year())

	// Stale counter that lost a race: the next issued number already exists.
	// The unique index is the backstop and the client gets a retryable 409.
	testutil.SeedEquipment(t, env.DB, prefix+"0001", "existing")
	if err := env.DB.Create(&entity.NumberSequence{Prefix: prefix, LastSeq: 0}).Error; err != nil {
		t.Fatalf("failed to seed stale counter: %v", err)
	}

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/equipments",
		map[string]interface{}{"name": "clash", "cost": 1000})
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}

	// The counter advanced past the collision, so a retry succeeds
	created := createEquipment(t, env, map[string]interface{}{"name": "retry", "cost": 1000})
	if created["management_number"] != prefix+"0002" {
		t.Errorf("retry number = %v, want %s0002", created["management_number"], prefix)
	}
}

func TestReferenceEndpoints(t *testing.T) {
	env, _ := setupEquipmentTest(t)
	it := testutil.SeedCategory(t, env.DB, "IT Equipment", "ITC")
	frn := testutil.SeedCategory(t, env.DB, "Furniture", "FRN")
	testutil.SeedSubcategory(t, env.DB, "Computer", it.ID)
	testutil.SeedSubcategory(t, env.DB, "Printer", it.ID)
	testutil.SeedSubcategory(t, env.DB, "Desk", frn.ID)
	testutil.SeedLocation(t, env.DB, "MO", "Head Office")

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/categories", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	items := testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 2 {
		t.Errorf("categories: got %d, want 2", len(items))
	}

	w = testutil.DoRequest(env.Router, "GET", fmt.Sprintf("/api/v1/categories/%d/subcategories", it.ID), nil)
	items = testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 2 {
		t.Errorf("IT subcategories: got %d, want 2", len(items))
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/locations", nil)
	items = testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 1 {
		t.Errorf("locations: got %d, want 1", len(items))
	}
}
