package commands

import (
	"errors"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dotcommander/memhook/internal/app"
	"github.com/dotcommander/memhook/internal/flags"
	"github.com/dotcommander/memhook/internal/output"
)

// NewFlagsCmd creates the flags maintenance namespace.
func NewFlagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Inspect and clean up coordination flags",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newFlagsListCmd())
	cmd.AddCommand(newFlagsSweepCmd())
	cmd.AddCommand(newFlagsClearCmd())
	namespaceIndex(cmd)
	return cmd
}

type flagRow struct {
	Key     string    `json:"key"`
	Kind    string    `json:"kind"`
	Size    string    `json:"size"`
	Age     string    `json:"age"`
	ModTime time.Time `json:"mod_time"`
}

// flagKind names a record by its key prefix.
func flagKind(key string) string {
	for _, k := range []struct{ prefix, kind string }{
		{"compacted-", "compaction"},
		{"session-", "session"},
		{"summary-", "summary"},
		{"topics-", "topics"},
		{flags.ExtractKey, "extract"},
	} {
		if strings.HasPrefix(key, k.prefix) {
			return k.kind
		}
	}
	return "other"
}

func listRows(store flags.Store) []flagRow {
	rows := []flagRow{}
	for _, e := range store.List() {
		rows = append(rows, flagRow{
			Key:     e.Key,
			Kind:    flagKind(e.Key),
			Size:    humanize.IBytes(uint64(max(e.Size, 0))),
			Age:     humanize.Time(e.ModTime),
			ModTime: e.ModTime.UTC(),
		})
	}
	return rows
}

func withFlagStore(fn func(store flags.Store, dir string) error) error {
	store, dir, err := openFlagStore()
	if err != nil {
		return cmdErr(err)
	}
	defer func() { _ = store.Close() }()
	if err := fn(store, dir); err != nil {
		return cmdErr(err)
	}
	return nil
}

func newFlagsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFlagStore(func(store flags.Store, dir string) error {
				type resp struct {
					Dir     string    `json:"dir"`
					Backend string    `json:"backend"`
					Count   int       `json:"count"`
					Flags   []flagRow `json:"flags"`
				}
				rows := listRows(store)
				return output.PrintSuccess(resp{Dir: dir, Backend: app.FlagBackend(), Count: len(rows), Flags: rows})
			})
		},
	}
}

func newFlagsSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete flags older than --max-age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			maxAge, _ := cmd.Flags().GetDuration("max-age")
			if maxAge <= 0 {
				maxAge = currentPolicy().SweepMaxAge
			}
			return withFlagStore(func(store flags.Store, dir string) error {
				type resp struct {
					MaxAge  string `json:"max_age"`
					Removed int    `json:"removed"`
				}
				removed := store.Sweep(maxAge, time.Now())
				return output.PrintSuccess(resp{MaxAge: maxAge.String(), Removed: removed})
			})
		},
	}
	cmd.Flags().Duration("max-age", 0, "Remove flags older than this (default from config, 24h)")
	return cmd
}

func newFlagsClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the flags of one session, or all flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			session, _ := cmd.Flags().GetString("session")
			if all == (session != "") {
				return cmdErr(errors.New("exactly one of --all or --session is required"))
			}
			return withFlagStore(func(store flags.Store, dir string) error {
				type resp struct {
					Removed []string `json:"removed"`
				}
				removed := clearFlags(store, all, session)
				return output.PrintSuccess(resp{Removed: removed})
			})
		},
	}
	cmd.Flags().Bool("all", false, "Delete every flag")
	cmd.Flags().String("session", "", "Delete the compaction, session and summary flags of this session id")
	return cmd
}

func clearFlags(store flags.Store, all bool, session string) []string {
	var keys []string
	if all {
		for _, e := range store.List() {
			keys = append(keys, e.Key)
		}
	} else {
		present := map[string]bool{}
		for _, e := range store.List() {
			present[e.Key] = true
		}
		for _, k := range []string{flags.CompactionKey(session), flags.MarkerKey(session), flags.SummaryKey(session)} {
			if present[k] {
				keys = append(keys, k)
			}
		}
	}
	removed := []string{}
	for _, k := range keys {
		store.Delete(k)
		removed = append(removed, k)
	}
	return removed
}
