package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/filetype"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/storage"
)

// archiveOptions mirror the API server's STORAGE_* settings.
type archiveOptions struct {
	backend     string
	path        string
	bucket      string
	credentials string
	prefix      string
}

func newArchiveCommand() *cobra.Command {
	opts := &archiveOptions{}

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect raw upload payloads archived by the API server",
		Long: "Archived payloads are grouped by file type. The backend flags must match\n" +
			"the STORAGE_* settings of the server that wrote them.",
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.backend, "backend", string(storage.StorageTypeLocal), "archive backend (local or gcs)")
	flags.StringVar(&opts.path, "path", "./data/uploads", "local archive directory")
	flags.StringVar(&opts.bucket, "bucket", "", "GCS bucket")
	flags.StringVar(&opts.credentials, "credentials", "", "GCS credentials file (default application credentials)")
	flags.StringVar(&opts.prefix, "prefix", "raw", "GCS object prefix")

	cmd.AddCommand(
		newArchiveListCommand(opts),
		newArchiveInfoCommand(opts),
		newArchiveGetCommand(opts),
		newArchiveRemoveCommand(opts),
	)
	return cmd
}

func newArchiveListCommand(opts *archiveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <file-type>",
		Short: "List archived payloads of a file type, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ft, err := filetype.Parse(args[0])
			if err != nil {
				return err
			}
			return opts.with(cmd.Context(), func(store storage.Storage) error {
				files, err := store.List(cmd.Context(), string(ft))
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, f := range files {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", f.ID, f.Name, f.Size, f.CreatedAt.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
}

func newArchiveInfoCommand(opts *archiveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file-type> <id>",
		Short: "Print the metadata of an archived payload",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ft, id, err := archiveTarget(args)
			if err != nil {
				return err
			}
			return opts.with(cmd.Context(), func(store storage.Storage) error {
				info, err := store.GetInfo(cmd.Context(), string(ft), id)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), info)
			})
		},
	}
}

func newArchiveGetCommand(opts *archiveOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <file-type> <id>",
		Short: "Download an archived payload",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ft, id, err := archiveTarget(args)
			if err != nil {
				return err
			}
			return opts.with(cmd.Context(), func(store storage.Storage) error {
				rc, _, err := store.Download(cmd.Context(), string(ft), id)
				if err != nil {
					return err
				}
				defer rc.Close()

				var w io.Writer = cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("creating %s: %w", output, err)
					}
					defer f.Close()
					w = f
				}
				if _, err := io.Copy(w, rc); err != nil {
					return fmt.Errorf("copying payload: %w", err)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newArchiveRemoveCommand(opts *archiveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <file-type> <id>",
		Short: "Delete an archived payload",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ft, id, err := archiveTarget(args)
			if err != nil {
				return err
			}
			return opts.with(cmd.Context(), func(store storage.Storage) error {
				if err := store.Delete(cmd.Context(), string(ft), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
				return nil
			})
		},
	}
}

// with opens the configured backend for the duration of fn.
func (o *archiveOptions) with(ctx context.Context, fn func(storage.Storage) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := storage.New(ctx, &storage.Config{
		Type:               storage.StorageType(o.backend),
		LocalPath:          o.path,
		GCSBucket:          o.bucket,
		GCSCredentialsFile: o.credentials,
		Prefix:             o.prefix,
	})
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}
	return fn(store)
}

func archiveTarget(args []string) (filetype.FileType, uuid.UUID, error) {
	ft, err := filetype.Parse(args[0])
	if err != nil {
		return "", uuid.Nil, err
	}
	id, err := uuid.Parse(args[1])
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("invalid archive id %q: %w", args[1], err)
	}
	return ft, id, nil
}
