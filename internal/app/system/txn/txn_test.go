package txn

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "generic error", err: errors.New("some random error"), want: false},
		{
			name: "command error code 20",
			err:  mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"},
			want: true,
		},
		{
			name: "command error code 51",
			err:  mongo.CommandError{Code: 51, Message: "Illegal operation"},
			want: true,
		},
		{
			name: "command error code 263",
			err:  mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"},
			want: true,
		},
		{
			name: "other command error code",
			err:  mongo.CommandError{Code: 100, Message: "Some other error"},
			want: false,
		},
		{
			name: "transaction plus replica set keywords",
			err:  errors.New("transaction failed because this is not a replica set member"),
			want: true,
		},
		{
			name: "session plus not supported keywords",
			err:  errors.New("session operations are not supported on this server"),
			want: true,
		},
		{name: "only one keyword", err: errors.New("transaction failed"), want: false},
		{
			name: "transaction plus session keywords",
			err:  errors.New("cannot start transaction in current session state"),
			want: true,
		},
		{
			name: "illegal operation keywords",
			err:  errors.New("illegal operation during transaction"),
			want: true,
		},
		{
			name: "case insensitive match",
			err:  errors.New("TRANSACTION FAILED on REPLICA SET"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsNotSupported(tt.err)
			if got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRun_NilClientRunsDirectly(t *testing.T) {
	called := false
	err := Run(context.Background(), nil, zap.NewNop(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !called {
		t.Fatal("fn was not invoked")
	}
}

func TestRun_NilClientPropagatesError(t *testing.T) {
	want := errors.New("boom")
	err := Run(context.Background(), nil, zap.NewNop(), func(ctx context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("got %v, want %v", err, want)
	}
}
