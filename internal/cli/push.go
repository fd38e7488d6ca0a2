package cli

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/api/dashboardv1/dashboardv1connect"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/client"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/filetype"
)

var errNoToken = errors.New("a token is required (set --token or DASHCTL_TOKEN)")

func newPushCommand() *cobra.Command {
	var fileType string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Upload a file to the dashboard API",
		Long: "Parses the file and uploads its rows. Large files are sent in chunks\n" +
			"and reassembled by the server before normalization.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if s.Token == "" {
				return errNoToken
			}
			ft, err := filetype.Parse(fileType)
			if err != nil {
				return err
			}
			res, err := readFile(args[0])
			if err != nil {
				return err
			}

			logger := commandLogger(cmd, s)
			httpClient := client.NewHTTPClient(&http.Client{Timeout: timeout})
			rpc := dashboardv1connect.NewIngestServiceClient(httpClient, s.Server)
			uploader := client.NewUploader(rpc, logger).
				WithToken(s.Token).
				WithThreshold(s.ChunkThreshold)

			logger.Info("uploading",
				slog.String("file", args[0]),
				slog.String("file_type", string(ft)),
				slog.Int("rows", len(res.Records)),
			)
			result, err := uploader.Upload(cmd.Context(), string(ft), res.Records)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&fileType, "type", "", "file type (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "timeout for each request")

	return cmd
}
