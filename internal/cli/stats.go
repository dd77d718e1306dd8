package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgnkit/curator/internal/metrics"
	"github.com/pgnkit/curator/internal/models"
	"github.com/pgnkit/curator/internal/store"
)

var tierOrder = []models.QualityTier{
	models.Tier1,
	models.Tier2,
	models.Tier3,
	models.BelowThreshold,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show library statistics",
	Long:  `Stats aggregates the record store by status, quality tier and game type.`,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := st.Statistics(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Total records: %d\n", stats.TotalRecords)
	printGroup("By status", stats.ByStatus)
	printGroup("By quality tier", stats.ByTier)
	printGroup("By game type", stats.ByGameType)

	printTimings()
	return nil
}

func printGroup(title string, groups []store.GroupCount) {
	if len(groups) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, group := range groups {
		key := group.Key
		if key == "" {
			key = "(none)"
		}
		fmt.Printf("  %-20s %6d   avg EVS %.1f\n", key, group.Count, group.AvgEVS)
	}
}

func printTimings() {
	if collector == nil {
		return
	}
	snapshot := collector.Snapshot()
	rows := []struct {
		name string
		op   *metrics.OperationSnapshot
	}{
		{"analyze", snapshot.Analyze},
		{"score", snapshot.Score},
		{"store_write", snapshot.StoreWrite},
		{"rename", snapshot.Rename},
		{"quarantine_move", snapshot.QuarantineMove},
		{"restore", snapshot.Restore},
	}

	printed := false
	for _, row := range rows {
		if row.op == nil {
			continue
		}
		if !printed {
			fmt.Println("\nOperation timings:")
			printed = true
		}
		fmt.Printf("  %-16s %6d ops   avg %.1fms   min %dms   max %dms\n",
			row.name, row.op.Count, row.op.AvgTimeMs, row.op.MinTimeMs, row.op.MaxTimeMs)
	}
}
