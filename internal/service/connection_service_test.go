package service

import (
	"context"
	"errors"
	"testing"

	"dataviz-sync/internal/model"
	"dataviz-sync/internal/repository"
)

type fakeTriggerRemover struct {
	removed []string
}

func (f *fakeTriggerRemover) Remove(connectionID string) {
	f.removed = append(f.removed, connectionID)
}

func TestCreateConnectionStoresSecret(t *testing.T) {
	repo := newFakeConnRepo()
	secrets := newFakeSecretStore()
	svc := NewConnectionService(repo, newFakeDatasetRepo(), secrets, &fakeTriggerRemover{})

	conn, err := svc.CreateConnection(context.Background(), &CreateConnectionRequest{
		Name:     "warehouse",
		Engine:   model.EngineMySQL,
		Host:     "db.internal",
		Port:     3306,
		Database: "sales",
		Username: "reader",
		Password: "hunter2",
	})
	if err != nil {
		t.Fatalf("CreateConnection failed: %v", err)
	}
	if conn.Status != model.ConnectionStatusPending {
		t.Errorf("expected pending status, got %s", conn.Status)
	}
	if !conn.HasSecret {
		t.Error("expected has_secret set")
	}
	if secret, ok := secrets.Get(conn.ID); !ok || secret != "hunter2" {
		t.Errorf("expected secret stored, got %q ok=%v", secret, ok)
	}
}

func TestCreateConnectionRejectsUnknownEngine(t *testing.T) {
	svc := NewConnectionService(newFakeConnRepo(), newFakeDatasetRepo(), newFakeSecretStore(), nil)

	_, err := svc.CreateConnection(context.Background(), &CreateConnectionRequest{
		Name:     "bad",
		Engine:   model.EngineKind("cassandra"),
		Host:     "h",
		Port:     9042,
		Database: "ks",
	})
	if !errors.Is(err, ErrUnsupportedEngine) {
		t.Fatalf("expected ErrUnsupportedEngine, got %v", err)
	}
}

func TestDeleteConnectionCascades(t *testing.T) {
	conn := newTestConnection()
	repo := newFakeConnRepo(conn)
	datasets := newFakeDatasetRepo()
	datasets.datasets["ds-1"] = &model.Dataset{ID: "ds-1", SourceID: conn.ID, Name: "orders"}
	datasets.datasets["ds-2"] = &model.Dataset{ID: "ds-2", SourceID: "someone-else", Name: "other"}
	secrets := newFakeSecretStore()
	secrets.Put(conn.ID, "hunter2")
	triggers := &fakeTriggerRemover{}
	svc := NewConnectionService(repo, datasets, secrets, triggers)

	if err := svc.DeleteConnection(context.Background(), conn.ID); err != nil {
		t.Fatalf("DeleteConnection failed: %v", err)
	}

	if _, ok := repo.conns[conn.ID]; ok {
		t.Error("expected record removed")
	}
	if len(triggers.removed) != 1 || triggers.removed[0] != conn.ID {
		t.Errorf("expected trigger torn down for %s, got %v", conn.ID, triggers.removed)
	}
	if _, ok := datasets.datasets["ds-1"]; ok {
		t.Error("expected connection's dataset dropped")
	}
	if _, ok := datasets.datasets["ds-2"]; !ok {
		t.Error("expected unrelated dataset kept")
	}
	if _, ok := secrets.Get(conn.ID); ok {
		t.Error("expected secret removed")
	}
}

func TestDeleteConnectionUnknown(t *testing.T) {
	svc := NewConnectionService(newFakeConnRepo(), newFakeDatasetRepo(), newFakeSecretStore(), nil)

	err := svc.DeleteConnection(context.Background(), "3f0b8c1e-7a4d-4c7e-9a6e-2f1d5b8c9e0a")
	if !errors.Is(err, repository.ErrConnectionNotFound) {
		t.Fatalf("expected ErrConnectionNotFound, got %v", err)
	}

	if err := svc.DeleteConnection(context.Background(), "not-a-uuid"); !errors.Is(err, repository.ErrInvalidUUID) {
		t.Fatalf("expected ErrInvalidUUID, got %v", err)
	}
}
