package repository

import (
	"context"
	"testing"
	"time"

	"courier-delivery-service/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestLogRepositoryPG_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &LogRepositoryPG{DB: db}

	mock.ExpectExec("INSERT INTO delivery_logs").
		WithArgs("<msg-1@courier>", "req-1", "smtp", "to@example.com", "sent", "", []byte(`{"template":"welcome"}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Insert(context.Background(), domain.DeliveryLog{
		MessageID: "<msg-1@courier>",
		RequestID: "req-1",
		Transport: "smtp",
		Target:    "to@example.com",
		Status:    "sent",
		Payload:   map[string]interface{}{"template": "welcome"},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLogRepositoryPG_ListFilters(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	repo := &LogRepositoryPG{DB: db}
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "message_id", "request_id", "transport", "target", "status", "error", "payload", "created_at",
	}).AddRow(int64(1), "<msg-1@courier>", "req-1", "ses", "to@example.com", "failed", "throttled", []byte(`{}`), now)

	mock.ExpectQuery("SELECT id, message_id, request_id, transport, target, status, error, payload, created_at").
		WithArgs("req-1", "failed", "ses", 50, 0).
		WillReturnRows(rows)

	logs, err := repo.List(context.Background(), "req-1", "failed", "ses", 0, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(logs) != 1 || logs[0].Error != "throttled" {
		t.Fatalf("unexpected logs: %#v", logs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
