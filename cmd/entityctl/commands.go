package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hugperez/jhipster-listener/internal/app"
	"github.com/hugperez/jhipster-listener/pkg/domain"
)

func newListCmd(e *env) *cobra.Command {
	var sort string
	cmd := &cobra.Command{
		Use:   "list ENTITY",
		Short: "List a collection (sorted client-side with --sort field,ASC|DESC)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := e.store.Entity(args[0])
			if err != nil {
				return err
			}
			out, err := h.List(cmd.Context(), sort)
			if err != nil {
				return err
			}
			return e.printJSON(out)
		},
	}
	cmd.Flags().StringVar(&sort, "sort", "", "sort token, e.g. name,ASC")
	return cmd
}

func newGetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get ENTITY ID",
		Short: "Fetch one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, id, err := e.entityAndID(args)
			if err != nil {
				return err
			}
			out, err := h.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return e.printJSON(out)
		},
	}
}

type writeFunc func(app.Handle, context.Context, []byte) (json.RawMessage, error)

func newWriteCmd(e *env, name, short string, write writeFunc) *cobra.Command {
	var data, file string
	cmd := &cobra.Command{
		Use:   name + " ENTITY",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := e.store.Entity(args[0])
			if err != nil {
				return err
			}
			body, err := readPayload(data, file)
			if err != nil {
				return err
			}
			out, err := write(h, cmd.Context(), body)
			if err != nil {
				return err
			}
			h.Settle()
			return e.printJSON(out)
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "record as inline JSON")
	cmd.Flags().StringVar(&file, "file", "", "read the record JSON from this file ('-' for stdin)")
	return cmd
}

func newDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ENTITY ID",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, id, err := e.entityAndID(args)
			if err != nil {
				return err
			}
			if err := h.Delete(cmd.Context(), id); err != nil {
				return err
			}
			h.Settle()
			fmt.Fprintf(e.stdout, "deleted %s %s\n", args[0], id)
			return nil
		},
	}
}

func newCacheCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the persisted slice state",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show ENTITY",
		Short: "Print the cached state of a slice without contacting the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if e.cache == nil {
				return app.ErrNoCache
			}
			h, err := e.store.Entity(args[0])
			if err != nil {
				return err
			}
			e.persist = false
			out, err := h.State()
			if err != nil {
				return err
			}
			return e.printJSON(out)
		},
	})
	return cmd
}

func newHistoryCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Move entity history content to and from blob storage",
	}
	var key string
	export := &cobra.Command{
		Use:   "export ID",
		Short: "Store the content of a history record as a blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseID(args[0])
			if err != nil {
				return err
			}
			info, err := e.store.ExportHistoryContent(cmd.Context(), id, key)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.stdout, "exported %s (%s, %s)\n", info.Key, humanize.Bytes(uint64(info.Size)), contentTypeOrUnknown(info.ContentType))
			return nil
		},
	}
	export.Flags().StringVar(&key, "key", "", "blob key (default entity-histories/<id>)")
	imp := &cobra.Command{
		Use:   "import ID KEY",
		Short: "Patch a blob into a history record's content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseID(args[0])
			if err != nil {
				return err
			}
			updated, err := e.store.ImportHistoryContent(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			e.store.History.Settle()
			fmt.Fprintf(e.stdout, "imported %s into history %s (%s)\n", args[1], id, humanize.Bytes(uint64(len(updated.Content))))
			return nil
		},
	}
	cmd.AddCommand(export, imp)
	return cmd
}

func newWatchCmd(e *env) *cobra.Command {
	var (
		interval time.Duration
		sort     string
		count    int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh every collection on an interval and report changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return errors.New("--interval must be positive")
			}
			ctx := cmd.Context()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for round := 1; ; round++ {
				if err := e.store.RefreshAll(ctx, sort); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					e.logger.Warn("refresh failed", zap.Int("round", round), zap.Error(err))
				} else {
					snap := e.store.Snapshot()
					fmt.Fprintf(e.stdout, "%s entityA=%d entityB=%d entityHistory=%d\n",
						time.Now().Format(time.RFC3339), len(snap.EntityA.Entities), len(snap.EntityB.Entities), len(snap.EntityHistory.Entities))
				}
				if count > 0 && round >= count {
					return nil
				}
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "refresh interval")
	cmd.Flags().StringVar(&sort, "sort", "", "sort token applied to every collection")
	cmd.Flags().IntVar(&count, "count", 0, "stop after this many refreshes (0 runs until interrupted)")
	return cmd
}

func (e *env) entityAndID(args []string) (app.Handle, domain.ID, error) {
	h, err := e.store.Entity(args[0])
	if err != nil {
		return nil, 0, err
	}
	id, err := domain.ParseID(args[1])
	if err != nil {
		return nil, 0, err
	}
	return h, id, nil
}

func (e *env) printJSON(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := e.stdout.Write(buf.Bytes())
	return err
}

func readPayload(data, file string) ([]byte, error) {
	switch {
	case data != "" && file != "":
		return nil, errors.New("use either --data or --file")
	case data != "":
		return []byte(data), nil
	case file == "-":
		return readAll(os.Stdin)
	case file != "":
		return os.ReadFile(file)
	}
	return nil, errors.New("one of --data or --file is required")
}

func readAll(f *os.File) ([]byte, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(f)
	return buf.Bytes(), err
}

func contentTypeOrUnknown(ct string) string {
	if ct == "" {
		return "unknown type"
	}
	return ct
}
