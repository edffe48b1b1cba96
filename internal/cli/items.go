package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rl1809/formalin/internal/core/domain"
	"github.com/rl1809/formalin/pkg/clients/formalin"
)

// itemFlags maps CLI flags onto request body keys.
var itemFlags = []struct {
	flag, key, usage string
}{
	{"key", "key", "item key"},
	{"place", "place", "storage place"},
	{"status", "status", "item status"},
	{"timestamp", "timestamp", "event time (RFC 3339, UTC if no offset)"},
	{"size", "size", "container size"},
	{"expired", "expired", "expiry date"},
	{"lot", "lotNumber", "lot number"},
	{"by", "updatedBy", "actor recorded in history"},
	{"old-status", "oldStatus", "history: previous status"},
	{"new-status", "newStatus", "history: new status"},
	{"old-place", "oldPlace", "history: previous place"},
	{"new-place", "newPlace", "history: new place"},
}

func addItemFlags(cmd *cobra.Command) {
	for _, f := range itemFlags {
		cmd.Flags().String(f.flag, "", f.usage)
	}
	cmd.Flags().Bool("now", false, "record history with the current time as updatedAt")
}

// payloadFromFlags includes only flags the user actually set. --by alone is
// not enough for a history entry; pair it with --now.
func payloadFromFlags(cmd *cobra.Command, clear []string) (formalin.Payload, error) {
	body := formalin.Payload{}
	for _, f := range itemFlags {
		if cmd.Flags().Changed(f.flag) {
			v, _ := cmd.Flags().GetString(f.flag)
			body[f.key] = v
		}
	}
	if now, _ := cmd.Flags().GetBool("now"); now {
		body["updatedAt"] = time.Now().UTC().Format(time.RFC3339)
	}

	for _, name := range clear {
		key, ok := clearableKey(name)
		if !ok {
			return nil, fmt.Errorf("cannot clear %q", name)
		}
		body[key] = nil
	}
	return body, nil
}

func clearableKey(flag string) (string, bool) {
	for _, f := range itemFlags {
		if f.flag == flag && f.flag != "key" && f.flag != "by" {
			return f.key, true
		}
	}
	return "", false
}

func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List items with their history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := opts.client().ListItems(cmd.Context())
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	}
}

func NewCreateCommand(opts *RootOptions) *cobra.Command {
	var idempotencyKey string

	cmd := &cobra.Command{
		Use:   "create --key K [flags]",
		Short: "Create an item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := payloadFromFlags(cmd, nil)
			if err != nil {
				return err
			}
			if idempotencyKey == "" {
				idempotencyKey = uuid.NewString()
			}

			id, err := opts.client().CreateItem(cmd.Context(), body, idempotencyKey)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]int64{"id": id})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created item %d\n", id)
			return nil
		},
	}

	addItemFlags(cmd)
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "request key; a random one is used when empty")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func NewUpdateCommand(opts *RootOptions) *cobra.Command {
	var clear []string

	cmd := &cobra.Command{
		Use:   "update <id> [flags]",
		Short: "Update the given fields of an item",
		Long: `Update an item. Only flags that are passed are sent; other fields keep
their stored value. Use --clear to set a field to null.

Example:
  formalinctl update 3 --place RoomB --by alice --now
  formalinctl update 3 --clear size --clear lot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			body, err := payloadFromFlags(cmd, clear)
			if err != nil {
				return err
			}

			if err := opts.client().UpdateItem(cmd.Context(), id, body); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated item %d\n", id)
			return nil
		},
	}

	addItemFlags(cmd)
	cmd.Flags().StringArrayVar(&clear, "clear", nil, "field to set to null (repeatable)")

	return cmd
}

func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			if err := opts.client().DeleteItem(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted item %d\n", id)
			return nil
		},
	}
}

func printItems(w io.Writer, items []domain.ItemWithHistory) {
	if len(items) == 0 {
		fmt.Fprintln(w, "no items")
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "%d\t%s\tplace=%s\tstatus=%s\texpired=%s\tlot=%s\n",
			it.ID, it.Key, orDash(it.Place), orDash(it.Status), orDash(it.Expired), orDash(it.LotNumber))
		for _, h := range it.History {
			fmt.Fprintf(w, "\t#%d %s by %s: status %q -> %q, place %q -> %q\n",
				h.ID, h.UpdatedAt, h.UpdatedBy, h.OldStatus, h.NewStatus, h.OldPlace, h.NewPlace)
		}
	}
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
