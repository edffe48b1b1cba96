package cli

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/rl1809/formalin/pkg/clients/formalin"
)

// StressOptions holds flags for the stress command.
type StressOptions struct {
	*RootOptions
	Requests int
	Actor    string
}

// NewStressCommand fires concurrent audited partial updates at one item and
// checks that every accepted update left exactly one history entry.
func NewStressCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StressOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stress <id>",
		Short: "Send concurrent updates to one item and verify its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return runStress(cmd, opts, id)
		},
	}

	cmd.Flags().IntVar(&opts.Requests, "requests", 50, "number of concurrent updates")
	cmd.Flags().StringVar(&opts.Actor, "by", "stress", "actor recorded in history")

	return cmd
}

func runStress(cmd *cobra.Command, opts *StressOptions, id int64) error {
	ctx := cmd.Context()
	client := opts.client()
	out := cmd.OutOrStdout()

	before, err := client.GetItem(ctx, id)
	if err != nil {
		return err
	}

	var successCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < opts.Requests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			err := client.UpdateItem(ctx, id, formalin.Payload{
				"place":     fmt.Sprintf("stress-%d", n),
				"updatedBy": opts.Actor,
				"updatedAt": time.Now().UTC().Format(time.RFC3339),
			})
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	after, err := client.GetItem(ctx, id)
	if err != nil {
		return err
	}

	success := int(successCount.Load())
	added := len(after.History) - len(before.History)

	fmt.Fprintln(out, "========== STRESS TEST RESULTS ==========")
	fmt.Fprintf(out, "Total Requests:   %d\n", opts.Requests)
	fmt.Fprintf(out, "Successful:       %d\n", success)
	fmt.Fprintf(out, "Failed:           %d\n", failCount.Load())
	fmt.Fprintf(out, "Duration:         %v\n", elapsed)
	fmt.Fprintf(out, "History Added:    %d\n", added)
	fmt.Fprintf(out, "Final Place:      %s\n", orDash(after.Place))
	fmt.Fprintln(out, "==========================================")

	if added != success {
		return fmt.Errorf("expected %d new history entries, got %d", success, added)
	}
	fmt.Fprintln(out, "PASS: one history entry per accepted update")
	return nil
}
