package sink

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
)

type fakeExecer struct {
	sql  string
	args []any
	tag  string
	err  error
}

func (f *fakeExecer) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	f.sql = sql
	f.args = arguments
	return pgconn.NewCommandTag(f.tag), f.err
}

func TestPostgresSink_Write(t *testing.T) {
	db := &fakeExecer{tag: "INSERT 0 1"}
	sink := NewPostgresSink(db)

	record := testRecord("I Hate You", models.VerdictBlocked, 0, 4)
	record.Override = "hate-keyword"

	if err := sink.Write(context.Background(), record); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if !strings.Contains(db.sql, "INSERT INTO band_name_checks") {
		t.Errorf("unexpected query %s", db.sql)
	}
	if len(db.args) != 8 {
		t.Fatalf("expected 8 arguments, got %d", len(db.args))
	}
	if db.args[1] != "I Hate You" || db.args[2] != "BLOCKED" {
		t.Errorf("unexpected name/verdict args %v %v", db.args[1], db.args[2])
	}
	if db.args[4] != 4 {
		t.Errorf("expected max severity 4, got %v", db.args[4])
	}
	if db.args[5] != int64(250) {
		t.Errorf("expected response time 250, got %v", db.args[5])
	}
	if db.args[7] != "hate-keyword" {
		t.Errorf("expected override arg, got %v", db.args[7])
	}
}

func TestPostgresSink_Write_Errors(t *testing.T) {
	tests := []struct {
		name string
		db   *fakeExecer
	}{
		{"exec error", &fakeExecer{err: errors.New("relation does not exist")}},
		{"no row inserted", &fakeExecer{tag: "INSERT 0 0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := NewPostgresSink(tt.db)
			if err := sink.Write(context.Background(), testRecord("x", models.VerdictAllowed)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
