package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"seedprocure-backend/internal/auth"
	"seedprocure-backend/internal/config"
	"seedprocure-backend/internal/logger"
	"seedprocure-backend/internal/metrics"
	"seedprocure-backend/internal/models"
	"seedprocure-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var now = time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC)

type harness struct {
	app          *fiber.App
	db           *gorm.DB
	officerToken string
	adminToken   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := &config.Config{
		JWTSecret:     testutil.JWTSecret,
		TokenTTLHours: 1,
		CORSOrigins:   "http://localhost:5173",
	}
	app := NewApp(Deps{
		Config:  cfg,
		DB:      db,
		Log:     logger.Nop(),
		Metrics: metrics.New(),
		Now:     testutil.Clock(now),
	})

	officer := testutil.SeedEmployee(t, db, "officer@example.com", models.RoleFieldOfficer, "pw")
	adm := testutil.SeedEmployee(t, db, "admin@example.com", models.RoleAdmin, "pw")
	h := &harness{app: app, db: db}
	h.officerToken = token(t, officer)
	h.adminToken = token(t, adm)
	return h
}

func token(t *testing.T, e *models.Employee) string {
	t.Helper()
	tok, err := auth.GenerateToken(testutil.JWTSecret, time.Hour, e)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

func (h *harness) do(t *testing.T, method, path, tok string, body any) (int, map[string]any) {
	t.Helper()
	status, raw := h.doRaw(t, method, path, tok, body)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return status, out
}

func (h *harness) doRaw(t *testing.T, method, path, tok string, body any) (int, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := h.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw
}

func TestRequiresToken(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, http.MethodGet, "/api/cycles/pending-samples", "", nil)
	if status != http.StatusUnauthorized || body["error"] != "unauthorized" || body["success"] != false {
		t.Fatalf("status=%d body=%v", status, body)
	}
	status, _ = h.do(t, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", status)
	}
}

func TestErrorKindsMapToStatus(t *testing.T) {
	h := newHarness(t)
	growing := testutil.SeedCycle(t, h.db, models.CycleGrowing)

	cases := []struct {
		path string
		body any
		code int
		kind string
	}{
		{"/api/cycles/9999/harvest", map[string]string{"collection_method": "yard"}, 404, "not_found"},
		{fmt.Sprintf("/api/cycles/%d/harvest", growing.ID), map[string]string{"collection_method": "boat"}, 400, "validation"},
		{fmt.Sprintf("/api/cycles/%d/sample-received", growing.ID), nil, 409, "invalid_transition"},
		{"/api/cycles/abc/harvest", map[string]string{"collection_method": "yard"}, 400, "validation"},
		{fmt.Sprintf("/api/cycles/%dabc/harvest", growing.ID), map[string]string{"collection_method": "yard"}, 400, "validation"},
		{"/api/shipments/1x/close", nil, 400, "validation"},
	}
	for _, tc := range cases {
		status, body := h.do(t, http.MethodPost, tc.path, h.officerToken, tc.body)
		if status != tc.code || body["error"] != tc.kind {
			t.Errorf("POST %s: status=%d body=%v, want %d %s", tc.path, status, body, tc.code, tc.kind)
		}
	}
}

func TestCycleToDispatchOverHTTP(t *testing.T) {
	h := newHarness(t)
	c := testutil.SeedCycle(t, h.db, models.CycleGrowing)
	base := fmt.Sprintf("/api/cycles/%d", c.ID)

	steps := []struct {
		path string
		body any
		want string
	}{
		{base + "/harvest", map[string]string{"collection_method": "collection_point"}, "harvested"},
		{base + "/sample-received", nil, "sample_collected"},
		{base + "/sample", map[string]any{"moisture": 8, "purity": 97.5, "dust": 0.3, "color_grade": "B", "non_seed": "none", "temp_price": 5}, "price_proposed"},
		{base + "/temporary-price", map[string]any{"price": 6.5}, "price_proposed"},
		{base + "/final-price", map[string]any{"final_price": 7}, "priced"},
		{base + "/weighing", map[string]any{"quantity_in_bags": 45}, "weighed"},
		{base + "/payment", map[string]any{"final_payment": 31500, "cheque_due_date": "2025-11-20"}, "weighed"},
	}
	for _, s := range steps {
		status, body := h.do(t, http.MethodPost, s.path, h.officerToken, s.body)
		if status != http.StatusOK || body["status"] != s.want {
			t.Fatalf("POST %s: status=%d body=%v, want %s", s.path, status, body, s.want)
		}
	}

	// the same harvest again is a race loser
	status, body := h.do(t, http.MethodPost, base+"/harvest", h.officerToken, map[string]string{"collection_method": "yard"})
	if status != http.StatusConflict || body["error"] != "invalid_transition" {
		t.Fatalf("repeat harvest: status=%d body=%v", status, body)
	}

	status, body = h.do(t, http.MethodGet, "/api/dashboard/stats?year=2025", h.officerToken, nil)
	if status != http.StatusOK {
		t.Fatalf("stats status=%d", status)
	}
	finance := body["finance"].(map[string]any)
	due := finance["due_today"].(map[string]any)
	if finance["pending_payments"].(float64) != 1 || due["count"].(float64) != 1 || due["amount"].(float64) != 31500 || due["bags"].(float64) != 45 {
		t.Fatalf("finance = %v", finance)
	}

	status, body = h.do(t, http.MethodPost, "/api/shipments", h.officerToken,
		map[string]any{"vehicle_number": "GJ-03-ZZ-1", "driver_name": "Mahesh", "target_bag_capacity": 100})
	if status != http.StatusCreated {
		t.Fatalf("open shipment: status=%d body=%v", status, body)
	}
	shipmentID := uint(body["shipment_id"].(float64))
	sbase := fmt.Sprintf("/api/shipments/%d", shipmentID)

	status, body = h.do(t, http.MethodPost, sbase+"/allocate", h.officerToken, map[string]any{"cycle_id": c.ID})
	if status != http.StatusOK || body["cycle_status"] != "loaded" {
		t.Fatalf("allocate: status=%d body=%v", status, body)
	}
	if sh := body["shipment"].(map[string]any); sh["total_bags"].(float64) != 45 || sh["remaining_bags"].(float64) != 55 {
		t.Fatalf("allocated shipment = %v", sh)
	}

	status, raw := h.doRaw(t, http.MethodGet, "/api/shipments/in-progress", h.officerToken, nil)
	var board []map[string]any
	if err := json.Unmarshal(raw, &board); err != nil || status != http.StatusOK || len(board) != 1 {
		t.Fatalf("in-progress: status=%d body=%s err=%v", status, raw, err)
	}

	for _, p := range []string{"/close", "/dispatch"} {
		if status, body := h.do(t, http.MethodPost, sbase+p, h.officerToken, nil); status != http.StatusOK {
			t.Fatalf("POST %s: status=%d body=%v", p, status, body)
		}
	}
	if got := testutil.ReloadCycle(t, h.db, c.ID); got.Status != models.CycleDispatched {
		t.Fatalf("cycle after dispatch = %s", got.Status)
	}

	status, body = h.do(t, http.MethodPost, base+"/paid", h.officerToken, nil)
	if status != http.StatusOK || body["status"] != "completed" {
		t.Fatalf("paid: status=%d body=%v", status, body)
	}

	status, body = h.do(t, http.MethodGet, sbase, h.officerToken, nil)
	if status != http.StatusOK || body["status"] != "dispatched" || len(body["cycles"].([]any)) != 1 {
		t.Fatalf("get shipment: status=%d body=%v", status, body)
	}
}

func TestAllocateCapacityExceededOverHTTP(t *testing.T) {
	h := newHarness(t)
	sh := testutil.SeedShipment(t, h.db, 50, 30, models.ShipmentLoading)
	c := testutil.SeedCycle(t, h.db, models.CycleWeighed, testutil.WithBags(21))

	status, body := h.do(t, http.MethodPost, fmt.Sprintf("/api/shipments/%d/allocate", sh.ID), h.officerToken, map[string]any{"cycle_id": c.ID})
	if status != http.StatusConflict || body["error"] != "capacity_exceeded" || body["message"] == "" {
		t.Fatalf("status=%d body=%v", status, body)
	}
}

func TestPendingSamplesOverHTTP(t *testing.T) {
	h := newHarness(t)
	testutil.SeedCycle(t, h.db, models.CycleHarvested, testutil.WithHarvestingDate(now))
	testutil.SeedCycle(t, h.db, models.CycleWeighed)

	status, raw := h.doRaw(t, http.MethodGet, "/api/cycles/pending-samples?year=2025", h.officerToken, nil)
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil || status != http.StatusOK {
		t.Fatalf("status=%d body=%s err=%v", status, raw, err)
	}
	if len(rows) != 1 || rows[0]["is_assigned"] != false {
		t.Fatalf("rows = %v", rows)
	}
}

func TestAdminRoutes(t *testing.T) {
	h := newHarness(t)
	v := testutil.SeedVariety(t, h.db, "GJ Cotton 8")

	status, _ := h.do(t, http.MethodPost, "/api/admin/employees", h.officerToken,
		map[string]any{"name": "X", "email": "x@example.com", "password": "secret"})
	if status != http.StatusForbidden {
		t.Fatalf("officer creating employee: status=%d", status)
	}

	status, body := h.do(t, http.MethodPost, "/api/admin/employees", h.adminToken,
		map[string]any{"name": "Kiran", "email": "Kiran@Example.com", "password": "secret"})
	if status != http.StatusCreated || body["role"] != "field_officer" || body["email"] != "kiran@example.com" {
		t.Fatalf("create employee: status=%d body=%v", status, body)
	}
	empID := body["id"].(float64)

	status, _ = h.do(t, http.MethodPost, "/api/admin/assignments", h.adminToken,
		map[string]any{"employee_id": empID, "seed_variety_id": v.ID})
	if status != http.StatusCreated {
		t.Fatalf("assign: status=%d", status)
	}
	status, body = h.do(t, http.MethodPost, "/api/admin/assignments", h.adminToken,
		map[string]any{"employee_id": empID, "seed_variety_id": 4040})
	if status != http.StatusNotFound {
		t.Fatalf("assign unknown variety: status=%d body=%v", status, body)
	}

	status, raw := h.doRaw(t, http.MethodGet, "/api/admin/employees", h.adminToken, nil)
	if status != http.StatusOK || !strings.Contains(string(raw), fmt.Sprintf(`"seed_variety_ids":[%d]`, v.ID)) {
		t.Fatalf("list employees: status=%d body=%s", status, raw)
	}

	status, _ = h.do(t, http.MethodDelete, "/api/admin/assignments", h.adminToken,
		map[string]any{"employee_id": empID, "seed_variety_id": v.ID})
	if status != http.StatusOK {
		t.Fatalf("unassign: status=%d", status)
	}

	status, raw = h.doRaw(t, http.MethodGet, "/api/admin/audit-logs?entity_type=employee", h.adminToken, nil)
	var logs []map[string]any
	if err := json.Unmarshal(raw, &logs); err != nil || status != http.StatusOK || len(logs) != 3 {
		t.Fatalf("audit logs: status=%d n=%d body=%s", status, len(logs), raw)
	}
}

func TestRegisterAdminAndLogin(t *testing.T) {
	db := testutil.NewDB(t)
	app := NewApp(Deps{
		Config: &config.Config{JWTSecret: testutil.JWTSecret, TokenTTLHours: 1, CORSOrigins: "*"},
		DB:     db,
		Log:    logger.Nop(),
	})
	h := &harness{app: app, db: db}

	creds := map[string]string{"name": "Owner", "email": "owner@example.com", "password": "hunter22"}
	if status, body := h.do(t, http.MethodPost, "/api/auth/register-admin", "", creds); status != http.StatusCreated {
		t.Fatalf("register: status=%d body=%v", status, body)
	}
	if status, _ := h.do(t, http.MethodPost, "/api/auth/register-admin", "", creds); status != http.StatusForbidden {
		t.Fatalf("second register status = %d", status)
	}

	status, body := h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "owner@example.com", "password": "wrong"})
	if status != http.StatusUnauthorized {
		t.Fatalf("bad password: status=%d body=%v", status, body)
	}
	status, body = h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "OWNER@example.com", "password": "hunter22"})
	if status != http.StatusOK {
		t.Fatalf("login: status=%d body=%v", status, body)
	}
	tok := body["token"].(string)

	status, body = h.do(t, http.MethodGet, "/api/auth/me", tok, nil)
	if status != http.StatusOK || body["role"] != "admin" {
		t.Fatalf("me: status=%d body=%v", status, body)
	}

	// no recorder configured, no metrics route
	if status, _ := h.doRaw(t, http.MethodGet, "/metrics", "", nil); status != http.StatusNotFound {
		t.Fatalf("/metrics without recorder: status=%d", status)
	}
}

func TestMetricsAndReport(t *testing.T) {
	h := newHarness(t)
	c := testutil.SeedCycle(t, h.db, models.CycleGrowing)
	h.do(t, http.MethodPost, fmt.Sprintf("/api/cycles/%d/harvest", c.ID), h.officerToken, map[string]string{"collection_method": "yard"})

	status, raw := h.doRaw(t, http.MethodGet, "/metrics", "", nil)
	if status != http.StatusOK || !strings.Contains(string(raw), `seedprocure_cycle_transitions_total{op="mark_harvested",result="ok"} 1`) {
		t.Fatalf("metrics: status=%d", status)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/reports/pending-payments.xlsx?year=2025", nil)
	req.Header.Set("Authorization", "Bearer "+h.officerToken)
	resp, err := h.app.Test(req, -1)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(resp.Header.Get("Content-Type"), "spreadsheetml") {
		t.Fatalf("report: status=%d content-type=%s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if resp.Header.Get(fiber.HeaderXRequestID) == "" {
		t.Fatalf("missing request id header")
	}
}
