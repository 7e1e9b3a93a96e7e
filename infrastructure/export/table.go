package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/carlosrabelo/macscan/domain/services"
)

// DisplayResults prints one table per device in device ID order
func DisplayResults(w io.Writer, agg *services.Aggregator) {
	for _, id := range agg.DeviceIDs() {
		result, _ := agg.Result(id)
		fmt.Fprintf(w, "\n=== %s ===\n", strings.ToUpper(id))

		if result.Failed() {
			fmt.Fprintf(w, "Error: %s\n", result.Error)
			continue
		}
		if result.Empty() {
			fmt.Fprintln(w, "No entries found")
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "VLAN\tMAC ADDRESS\tTYPE\tPORT")
		for _, e := range result.Entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Vlan, e.Mac, e.Type, e.Port)
		}
		tw.Flush()
		fmt.Fprintf(w, "Total: %d MAC addresses (%s)\n", len(result.Entries), result.Platform)
	}
}

// DisplaySummary prints the round totals. csvPath may be empty when the
// export was skipped or failed.
func DisplaySummary(w io.Writer, summary services.Summary, csvPath string) {
	fmt.Fprintln(w, "\nSUMMARY")
	fmt.Fprintf(w, "Successful devices: %d\n", summary.SuccessfulDevices)
	fmt.Fprintf(w, "Failed devices: %d\n", summary.FailedDevices)
	fmt.Fprintf(w, "Total MAC addresses: %d\n", summary.TotalEntries)
	if csvPath != "" {
		fmt.Fprintf(w, "CSV saved to: %s\n", csvPath)
	}
}
