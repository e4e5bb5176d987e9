package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dataviz-sync/internal/model"
	"dataviz-sync/internal/repository"
	"dataviz-sync/internal/scheduler"
	"dataviz-sync/internal/service"
)

// Fake services backing the HTTP layer

type fakeConnectionService struct {
	conns map[string]*model.Connection
}

func newFakeConnectionService() *fakeConnectionService {
	return &fakeConnectionService{conns: make(map[string]*model.Connection)}
}

func (s *fakeConnectionService) CreateConnection(ctx context.Context, req *service.CreateConnectionRequest) (*model.Connection, error) {
	if !req.Engine.Valid() {
		return nil, fmt.Errorf("%w: %s", service.ErrUnsupportedEngine, req.Engine)
	}
	conn := &model.Connection{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Engine:    req.Engine,
		Host:      req.Host,
		Port:      req.Port,
		Database:  req.Database,
		Username:  req.Username,
		OrgID:     req.OrgID,
		Status:    model.ConnectionStatusPending,
		HasSecret: req.Password != "",
	}
	s.conns[conn.ID] = conn
	return conn, nil
}

func (s *fakeConnectionService) GetConnection(ctx context.Context, id string) (*model.Connection, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrInvalidUUID
	}
	conn, ok := s.conns[id]
	if !ok {
		return nil, repository.ErrConnectionNotFound
	}
	return conn, nil
}

func (s *fakeConnectionService) ListConnections(ctx context.Context, req *service.ListConnectionsRequest) (*service.ListConnectionsResponse, error) {
	out := make([]*model.Connection, 0, len(s.conns))
	for _, c := range s.conns {
		if req.OrgID == "" || c.OrgID == req.OrgID {
			out = append(out, c)
		}
	}
	return &service.ListConnectionsResponse{Connections: out, Total: int64(len(out))}, nil
}

func (s *fakeConnectionService) DeleteConnection(ctx context.Context, id string) error {
	if _, ok := s.conns[id]; !ok {
		return repository.ErrConnectionNotFound
	}
	delete(s.conns, id)
	return nil
}

type fakeSyncService struct {
	conns   *fakeConnectionService
	pingErr error
	tables  []string
	result  *service.SyncResult
}

func (s *fakeSyncService) TestConnection(ctx context.Context, id string) (string, error) {
	if _, err := s.conns.GetConnection(ctx, id); err != nil {
		return "", err
	}
	if s.pingErr != nil {
		return "", s.pingErr
	}
	return "connection successful", nil
}

func (s *fakeSyncService) ListTables(ctx context.Context, id string) ([]string, error) {
	if _, err := s.conns.GetConnection(ctx, id); err != nil {
		return nil, err
	}
	return s.tables, nil
}

func (s *fakeSyncService) SyncConnection(ctx context.Context, id string, tableName string, replacePrior bool) (*service.SyncResult, error) {
	if _, err := s.conns.GetConnection(ctx, id); err != nil {
		return nil, err
	}
	return s.result, nil
}

type fakeScheduleService struct {
	conns *fakeConnectionService
}

func (s *fakeScheduleService) SetSchedule(ctx context.Context, id string, req *service.ScheduleRequest) (*service.ScheduleStatus, error) {
	if _, err := s.conns.GetConnection(ctx, id); err != nil {
		return nil, err
	}
	schedule := &model.Schedule{
		IntervalType:  req.IntervalType,
		IntervalValue: req.IntervalValue,
		CustomCron:    req.CustomCron,
		Enabled:       true,
	}
	if _, err := scheduler.TriggerSpec(schedule); err != nil {
		return nil, err
	}
	return &service.ScheduleStatus{Status: service.ScheduleStateScheduled, Schedule: schedule}, nil
}

func (s *fakeScheduleService) GetSchedule(ctx context.Context, id string) (*service.ScheduleStatus, error) {
	if _, err := s.conns.GetConnection(ctx, id); err != nil {
		return nil, err
	}
	return &service.ScheduleStatus{Status: service.ScheduleStateNotScheduled}, nil
}

func (s *fakeScheduleService) RemoveSchedule(ctx context.Context, id string) error {
	_, err := s.conns.GetConnection(ctx, id)
	return err
}

func (s *fakeScheduleService) RestoreAll(ctx context.Context) (int, error) {
	return 0, nil
}

func newTestRouter() (*gin.Engine, *fakeConnectionService, *fakeSyncService) {
	gin.SetMode(gin.TestMode)

	conns := newFakeConnectionService()
	syncs := &fakeSyncService{conns: conns}
	schedules := &fakeScheduleService{conns: conns}
	cc := NewConnectionController(conns, syncs, schedules, false)

	router := gin.New()
	router.POST("/api/v1/connections", cc.CreateConnection)
	router.GET("/api/v1/connections", cc.ListConnections)
	router.GET("/api/v1/connections/:id", cc.GetConnection)
	router.DELETE("/api/v1/connections/:id", cc.DeleteConnection)
	router.POST("/api/v1/connections/:id/test", cc.TestConnection)
	router.GET("/api/v1/connections/:id/tables", cc.ListTables)
	router.POST("/api/v1/connections/:id/schedule", cc.SetSchedule)
	router.DELETE("/api/v1/connections/:id/schedule", cc.RemoveSchedule)
	return router, conns, syncs
}

func performJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetConnectionRoundTrip(t *testing.T) {
	router, _, _ := newTestRouter()

	w := performJSON(router, http.MethodPost, "/api/v1/connections", map[string]interface{}{
		"name":     "Shop DB",
		"db_type":  "postgresql",
		"host":     "db.internal",
		"port":     5432,
		"database": "shop",
		"username": "reader",
		"password": "s3cret",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		Success bool             `json:"success"`
		Data    model.Connection `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !created.Success || created.Data.ID == "" {
		t.Fatalf("unexpected create response: %s", w.Body.String())
	}
	if !created.Data.HasSecret {
		t.Error("expected has_secret set")
	}

	w = performJSON(router, http.MethodGet, "/api/v1/connections/"+created.Data.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var fetched struct {
		Data model.Connection `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if fetched.Data.Name != "Shop DB" || fetched.Data.Host != "db.internal" ||
		fetched.Data.Port != 5432 || fetched.Data.Database != "shop" {
		t.Errorf("round trip mismatch: %+v", fetched.Data)
	}
}

func TestCreateConnectionRejectsUnknownEngine(t *testing.T) {
	router, _, _ := newTestRouter()

	w := performJSON(router, http.MethodPost, "/api/v1/connections", map[string]interface{}{
		"name":     "Herd",
		"db_type":  "cassandra",
		"host":     "db.internal",
		"port":     9042,
		"database": "ks",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("UNSUPPORTED_ENGINE")) {
		t.Errorf("expected UNSUPPORTED_ENGINE code, got %s", w.Body.String())
	}
}

func TestGetConnectionNotFound(t *testing.T) {
	router, _, _ := newTestRouter()

	w := performJSON(router, http.MethodGet, "/api/v1/connections/"+uuid.New().String(), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("CONNECTION_NOT_FOUND")) {
		t.Errorf("expected CONNECTION_NOT_FOUND code, got %s", w.Body.String())
	}

	// Malformed ids are a 400, not a 404
	w = performJSON(router, http.MethodGet, "/api/v1/connections/not-a-uuid", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d", w.Code)
	}
}

func TestListConnectionsScopedByOrgQuery(t *testing.T) {
	router, conns, _ := newTestRouter()

	conns.CreateConnection(context.Background(), &service.CreateConnectionRequest{
		Name: "Shop DB", Engine: model.EngineMySQL, Host: "db", Port: 3306, Database: "shop", OrgID: "org-1",
	})
	conns.CreateConnection(context.Background(), &service.CreateConnectionRequest{
		Name: "CRM DB", Engine: model.EnginePostgreSQL, Host: "db2", Port: 5432, Database: "crm", OrgID: "org-2",
	})

	w := performJSON(router, http.MethodGet, "/api/v1/connections?org_id=org-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var payload struct {
		Data service.ListConnectionsResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Data.Connections) != 1 || payload.Data.Connections[0].OrgID != "org-1" {
		t.Errorf("expected only org-1 connections, got %+v", payload.Data.Connections)
	}

	// No scope lists everything
	w = performJSON(router, http.MethodGet, "/api/v1/connections", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Data.Connections) != 2 {
		t.Errorf("expected both connections, got %d", len(payload.Data.Connections))
	}
}

func TestTestConnectionEngineFailureIsPayload(t *testing.T) {
	router, conns, syncs := newTestRouter()

	conn, _ := conns.CreateConnection(context.Background(), &service.CreateConnectionRequest{
		Name: "Shop DB", Engine: model.EngineMySQL, Host: "db", Port: 3306, Database: "shop",
	})
	syncs.pingErr = fmt.Errorf("dial tcp: connection refused")

	w := performJSON(router, http.MethodPost, "/api/v1/connections/"+conn.ID+"/test", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("engine failure must stay 200, got %d", w.Code)
	}

	var payload struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Status != "error" || payload.Message == "" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestListTablesPayload(t *testing.T) {
	router, conns, syncs := newTestRouter()

	conn, _ := conns.CreateConnection(context.Background(), &service.CreateConnectionRequest{
		Name: "Shop DB", Engine: model.EngineMySQL, Host: "db", Port: 3306, Database: "shop",
	})
	syncs.tables = []string{"orders", "customers"}

	w := performJSON(router, http.MethodGet, "/api/v1/connections/"+conn.ID+"/tables", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var payload struct {
		Tables []string `json:"tables"`
		Count  int      `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Count != 2 || len(payload.Tables) != 2 {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestSetScheduleBadConfig(t *testing.T) {
	router, conns, _ := newTestRouter()

	conn, _ := conns.CreateConnection(context.Background(), &service.CreateConnectionRequest{
		Name: "Shop DB", Engine: model.EngineMySQL, Host: "db", Port: 3306, Database: "shop",
	})

	w := performJSON(router, http.MethodPost, "/api/v1/connections/"+conn.ID+"/schedule", map[string]interface{}{
		"interval_type": "custom",
		"custom_cron":   "not a cron line",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("SCHEDULE_CONFIG_ERROR")) {
		t.Errorf("expected SCHEDULE_CONFIG_ERROR code, got %s", w.Body.String())
	}
}

func TestRemoveSchedulePayload(t *testing.T) {
	router, conns, _ := newTestRouter()

	conn, _ := conns.CreateConnection(context.Background(), &service.CreateConnectionRequest{
		Name: "Shop DB", Engine: model.EngineMySQL, Host: "db", Port: 3306, Database: "shop",
	})

	w := performJSON(router, http.MethodDelete, "/api/v1/connections/"+conn.ID+"/schedule", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var payload map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["status"] != "removed" {
		t.Errorf("expected removed status, got %+v", payload)
	}
}
