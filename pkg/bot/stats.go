package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Jacobbrewer1/triage/pkg/entities"
)

// StatsReader is the store subset the statistics view reads.
type StatsReader interface {
	OverallCounts(ctx context.Context) (*entities.Counts, error)
	UserCount(ctx context.Context) (int64, error)
	CountsByFeature(ctx context.Context) (map[string]int64, error)
}

// ReadStats reads the counts and renders them.
func ReadStats(ctx context.Context, store StatsReader) (string, error) {
	counts, err := store.OverallCounts(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting ticket counts: %w", err)
	}

	users, err := store.UserCount(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting user count: %w", err)
	}

	byFeature, err := store.CountsByFeature(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting feature counts: %w", err)
	}

	return FormatStats(counts, users, byFeature), nil
}

// FormatStats renders the statistics view.
func FormatStats(counts *entities.Counts, users int64, byFeature map[string]int64) string {
	b := new(strings.Builder)
	b.WriteString("📊 Ticket statistics\n\n")
	fmt.Fprintf(b, "Total: %d\n", counts.Total)
	fmt.Fprintf(b, "Open: %d\n", counts.Open)
	fmt.Fprintf(b, "Closed: %d\n", counts.Closed)
	fmt.Fprintf(b, "Users: %d\n", users)

	b.WriteString("\nOpen by feature:")
	for _, f := range entities.Features {
		fmt.Fprintf(b, "\n• %s: %d", f, byFeature[f])
	}

	extra := make([]string, 0)
	for f, c := range byFeature {
		if c > 0 && !entities.IsCanonicalFeature(f) {
			extra = append(extra, f)
		}
	}
	sort.Strings(extra)
	for _, f := range extra {
		fmt.Fprintf(b, "\n• %s: %d", f, byFeature[f])
	}
	return b.String()
}
