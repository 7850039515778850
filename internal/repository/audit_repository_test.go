package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"telepilot/internal/model"
)

func TestAuditInsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	entry := &model.AuditLog{Type: model.AuditTypeBroadcast, ActorID: 99, Message: "hello\n\n[sent 2/3]"}
	if err := repo.Insert(ctx, entry); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := uuid.Parse(entry.ID); err != nil {
		t.Errorf("Insert assigned id %q: %v", entry.ID, err)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("Insert left CreatedAt unset")
	}

	at := time.Date(2000, 2, 2, 2, 2, 2, 0, time.UTC)
	if err := repo.Insert(ctx, &model.AuditLog{ID: "fixed", Type: model.AuditTypeBroadcast, ActorID: 99, Message: "second", CreatedAt: at}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	var stored []model.AuditLog
	if err := db.Order("created_at ASC").Find(&stored).Error; err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d entries, want 2", len(stored))
	}
	if stored[0].ID != "fixed" || !stored[0].CreatedAt.Equal(at) {
		t.Errorf("first entry = %+v, want id fixed at %v", stored[0], at)
	}
	if stored[1].Message != "hello\n\n[sent 2/3]" || stored[1].ActorID != 99 {
		t.Errorf("second entry = %+v", stored[1])
	}
}

func TestAuditInsertDuplicateID(t *testing.T) {
	repo := NewAuditRepository(newTestDB(t))
	ctx := context.Background()
	if err := repo.Insert(ctx, &model.AuditLog{ID: "dup", Type: model.AuditTypeBroadcast}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Insert(ctx, &model.AuditLog{ID: "dup", Type: model.AuditTypeBroadcast}); err == nil {
		t.Error("duplicate id accepted, audit log must be append-only")
	}
}
