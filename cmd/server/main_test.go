package main

import (
	"context"
	"io"
	"testing"

	"github.com/revtrack/revenue-tracker/internal/pkg/config"
	"github.com/revtrack/revenue-tracker/pkg/logger"
)

func TestRun_FailsOnUnreachableStore(t *testing.T) {
	logger.Reset()
	t.Cleanup(logger.Reset)
	logger.Init(logger.Options{Output: io.Discard})

	cfg := &config.Config{Mongo: config.MongoConfig{URI: "not-a-mongo-uri", Database: "test"}}
	if err := run(context.Background(), cfg); err == nil {
		t.Fatalf("expected run to fail with an invalid mongo uri")
	}
}
