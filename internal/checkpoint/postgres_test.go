package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/mohammad-safakhou/scholar/internal/workflow"
)

func TestPostgresStoreSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := &PostgresStore{DB: db}
	st := workflow.State{
		ConversationID: "conv-1",
		OriginalQuery:  "microplastics",
		ResearchPlan:   "1. sources",
		Suspended:      true,
	}
	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(saveConversationSQL)).
		WithArgs("conv-1", data).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Save(context.Background(), "conv-1", st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresStoreLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := &PostgresStore{DB: db}
	want := workflow.State{
		ConversationID: "conv-1",
		Summary:        "summary of findings",
		RawResults:     []workflow.ResearchResult{{Source: "https://a.example", Content: "alpha"}},
	}
	data, _ := json.Marshal(want)

	mock.ExpectQuery(regexp.QuoteMeta(loadConversationSQL)).
		WithArgs("conv-1").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(data))

	got, ok, err := store.Load(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatalf("expected snapshot")
	}
	if got.Summary != want.Summary || len(got.RawResults) != 1 {
		t.Fatalf("unexpected state: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresStoreLoadMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := &PostgresStore{DB: db}
	mock.ExpectQuery(regexp.QuoteMeta(loadConversationSQL)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"state"}))

	_, ok, err := store.Load(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatalf("missing conversation reported as found")
	}
}

func TestPostgresStoreSaveError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := &PostgresStore{DB: db}
	mock.ExpectExec(regexp.QuoteMeta(saveConversationSQL)).
		WillReturnError(errors.New("connection reset"))

	if err := store.Save(context.Background(), "conv-1", workflow.State{}); err == nil {
		t.Fatalf("expected save error")
	}
}
