package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/internal/config"
)

func TestParse(t *testing.T) {
	tests := []struct {
		url      string
		driver   Driver
		location string
		wantErr  bool
	}{
		{url: "mongodb://localhost/mern-stack-db", driver: DriverMongo, location: "mongodb://localhost/mern-stack-db"},
		{url: "mongodb+srv://user:pw@cluster.example.net/todos", driver: DriverMongo, location: "mongodb+srv://user:pw@cluster.example.net/todos"},
		{url: "postgres://u:p@localhost:5432/todos?sslmode=disable", driver: DriverPostgres, location: "postgres://u:p@localhost:5432/todos?sslmode=disable"},
		{url: "postgresql://localhost/todos", driver: DriverPostgres, location: "postgresql://localhost/todos"},
		{url: "redis://localhost:6379/0", driver: DriverRedis, location: "redis://localhost:6379/0"},
		{url: "bolt://./data/todos.db", driver: DriverBolt, location: "./data/todos.db"},
		{url: "sqlite:///var/lib/todo/todos.sqlite", driver: DriverSQLite, location: "/var/lib/todo/todos.sqlite"},
		{url: "  SQLITE://todos.sqlite ", driver: DriverSQLite, location: "todos.sqlite"},
		{url: "bolt://", wantErr: true},
		{url: "mysql://localhost/todos", wantErr: true},
		{url: "localhost:27017", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			target, err := Parse(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if target.Driver != tt.driver {
				t.Errorf("Driver: got %q, want %q", target.Driver, tt.driver)
			}
			if target.Location != tt.location {
				t.Errorf("Location: got %q, want %q", target.Location, tt.location)
			}
		})
	}
}

func TestOpenEmbeddedDrivers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, url := range []string{
		"bolt://" + filepath.Join(dir, "todos.db"),
		"sqlite://" + filepath.Join(dir, "todos.sqlite"),
	} {
		t.Run(url, func(t *testing.T) {
			cfg := &config.Config{Database: config.DatabaseConfig{URL: url}}
			st, err := Open(ctx, cfg, nil)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer st.Close(ctx)

			if err := st.Pinger.Ping(ctx); err != nil {
				t.Fatalf("Ping failed: %v", err)
			}
			created, err := st.Todos.Create(ctx, domain.NewTodo("Buy milk"))
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			todos, err := st.Todos.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(todos) != 1 || todos[0].ID != created.ID || todos[0].Task != "Buy milk" {
				t.Errorf("List: got %+v", todos)
			}
		})
	}
}
