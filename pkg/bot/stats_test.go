package bot

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Jacobbrewer1/triage/pkg/dataaccess"
	"github.com/Jacobbrewer1/triage/pkg/entities"
	"github.com/stretchr/testify/require"
)

func TestFormatStats_Empty(t *testing.T) {
	got := FormatStats(&entities.Counts{}, 0, nil)
	require.Contains(t, got, "Total: 0\n")
	require.Contains(t, got, "• Others: 0")
}

func TestReadStats(t *testing.T) {
	store := dataaccess.NewMemoryStore(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	user := entities.User{ID: 7, Handle: "reporter"}
	require.NoError(t, store.UpsertUser(ctx, user, now))
	id, err := store.CreateTicket(ctx, entities.NewTicket{Reporter: user, Feature: entities.FeatureOthers, Description: "broken"}, now)
	require.NoError(t, err)
	_, err = store.CreateTicket(ctx, entities.NewTicket{Reporter: user, Feature: entities.FeatureOthers, Description: "also broken"}, now)
	require.NoError(t, err)
	_, err = store.CloseTicket(ctx, id, now)
	require.NoError(t, err)

	got, err := ReadStats(ctx, store)
	require.NoError(t, err)
	require.Contains(t, got, "Total: 2\n")
	require.Contains(t, got, "Open: 1\n")
	require.Contains(t, got, "Closed: 1\n")
	require.Contains(t, got, "Users: 1\n")
	require.Contains(t, got, "• Others: 1")
}
