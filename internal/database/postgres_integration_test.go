// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/credguard/internal/config"
	"github.com/tomtom215/credguard/internal/detection"
	"github.com/tomtom215/credguard/internal/testinfra"
)

func TestPostgresStore_Integration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg, err := testinfra.NewPostgresContainer(ctx, testinfra.WithPostgresStartTimeout(2*time.Minute))
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, pg)

	store, err := Open(ctx, &config.DatabaseConfig{
		Driver:           config.DriverPostgres,
		PostgresDSN:      pg.DSN,
		PostgresMaxConns: 4,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer closeQuietly(store)

	lat := 19.0760
	geo := loginEvent("tenant-a", "alice", "203.0.113.7", false, 0)
	geo.City = strPtr("Mumbai")
	geo.Latitude = &lat

	events := []*detection.LoginEvent{
		geo,
		loginEvent("tenant-b", "alice", "203.0.113.8", false, 0),
		loginEvent("tenant-a", "bob", "203.0.113.9", true, time.Minute),
	}
	for _, ev := range events {
		if err := store.InsertLoginEvent(ctx, ev); err != nil {
			t.Fatalf("InsertLoginEvent() error = %v", err)
		}
	}

	got, err := store.FetchEvents(ctx, detection.EventQuery{
		TenantKey:      "tenant-a",
		Start:          baseTime,
		End:            baseTime.Add(time.Minute),
		StartInclusive: true,
	})
	if err != nil {
		t.Fatalf("FetchEvents() error = %v", err)
	}
	if len(got) != 2 || got[0].UserID != "alice" || got[1].UserID != "bob" {
		t.Fatalf("unexpected events %+v", got)
	}
	if got[0].City == nil || *got[0].City != "Mumbai" || got[0].Longitude != nil {
		t.Errorf("geo attributes not preserved: %+v", got[0].GeoAttributes)
	}

	latest, found, err := store.LatestEventTime(ctx)
	if err != nil || !found || !latest.Equal(baseTime.Add(time.Minute)) {
		t.Errorf("LatestEventTime() = %v, %v, %v", latest, found, err)
	}

	cp, err := OpenCheckpointStore(config.CheckpointConfig{Backend: config.CheckpointDatabase}, store)
	if err != nil {
		t.Fatalf("OpenCheckpointStore() error = %v", err)
	}
	if _, found, err := cp.Read(ctx); err != nil || found {
		t.Fatalf("fresh checkpoint = found %v, err %v", found, err)
	}
	if err := cp.Write(ctx, latest); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got, found, err := cp.Read(ctx); err != nil || !found || !got.Equal(latest) {
		t.Errorf("Read() = %v, %v, %v", got, found, err)
	}
}
