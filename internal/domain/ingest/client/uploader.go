// Package client uploads parsed rows to the ingest service, switching to
// chunked mode for large batches.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	v1 "github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/api/dashboardv1"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/parser"
)

// DefaultChunkThreshold is the serialized size above which uploads are sent
// in chunks.
const DefaultChunkThreshold = 3_500_000

// Upload modes.
const (
	ModeSingle  = "single"
	ModeChunked = "chunked"
)

// maxShrinks bounds how often a rejected chunked upload is retried with
// smaller chunks.
const maxShrinks = 6

// ErrPayloadTooLarge is returned by the transport from NewHTTPClient when a
// proxy answers 413.
var ErrPayloadTooLarge = errors.New("payload too large")

// IngestClient is the subset of the ingest RPC client the uploader needs.
type IngestClient interface {
	Upload(context.Context, *connect.Request[v1.UploadRequest]) (*connect.Response[v1.UploadResponse], error)
	UploadChunk(context.Context, *connect.Request[v1.UploadChunkRequest]) (*connect.Response[v1.UploadChunkResponse], error)
}

// Result describes a finished upload.
type Result struct {
	Mode     string            `json:"mode"`
	Chunks   int               `json:"chunks"`
	UploadID string            `json:"uploadId,omitempty"`
	Dataset  v1.DatasetSummary `json:"dataset"`
}

// Uploader sends batches to the ingest service.
type Uploader struct {
	client    IngestClient
	threshold int
	token     string
	logger    *slog.Logger
	newID     func() string
}

// NewUploader creates an uploader using DefaultChunkThreshold.
func NewUploader(client IngestClient, logger *slog.Logger) *Uploader {
	return &Uploader{
		client:    client,
		threshold: DefaultChunkThreshold,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// WithToken sends token as a bearer credential.
func (u *Uploader) WithToken(token string) *Uploader {
	u.token = token
	return u
}

// WithThreshold overrides the chunking threshold in bytes.
func (u *Uploader) WithThreshold(bytes int) *Uploader {
	if bytes > 0 {
		u.threshold = bytes
	}
	return u
}

// Upload sends rows as fileType. Batches whose serialized rows exceed the
// threshold go straight to chunked mode; a single upload rejected as too
// large is retried in chunked mode.
func (u *Uploader) Upload(ctx context.Context, fileType string, rows []parser.Record) (*Result, error) {
	encoded, size, err := encodeRows(rows)
	if err != nil {
		return nil, err
	}

	if size <= u.threshold {
		req := connect.NewRequest(&v1.UploadRequest{FileType: fileType, Data: rows})
		u.authorize(req.Header())
		resp, err := u.client.Upload(ctx, req)
		if err == nil {
			return &Result{Mode: ModeSingle, Chunks: 1, Dataset: resp.Msg.Dataset}, nil
		}
		if !tooLarge(err) {
			return nil, err
		}
		u.logger.Info("upload rejected as too large, switching to chunked mode",
			slog.String("file_type", fileType),
			slog.Int("bytes", size),
		)
		return u.uploadChunked(ctx, fileType, rows, encoded, min(u.threshold, max(size/2, 1)))
	}

	return u.uploadChunked(ctx, fileType, rows, encoded, u.threshold)
}

// uploadChunked sends rows in chunks of at most budget serialized bytes,
// halving the budget when the server rejects a chunk as too large.
func (u *Uploader) uploadChunked(ctx context.Context, fileType string, rows []parser.Record, encoded [][]byte, budget int) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt <= maxShrinks; attempt++ {
		chunks := split(rows, encoded, budget)
		res, err := u.sendChunks(ctx, fileType, chunks)
		if err == nil {
			return res, nil
		}
		if !tooLarge(err) || budget <= 1 {
			return nil, err
		}
		lastErr = err
		budget /= 2
		u.logger.Info("chunk rejected as too large, retrying with smaller chunks", slog.Int("budget", budget))
	}
	return nil, fmt.Errorf("upload still too large after %d retries: %w", maxShrinks, lastErr)
}

func (u *Uploader) sendChunks(ctx context.Context, fileType string, chunks [][]parser.Record) (*Result, error) {
	uploadID := u.newID()
	for i, c := range chunks {
		req := connect.NewRequest(&v1.UploadChunkRequest{
			UploadID:    uploadID,
			ChunkIndex:  i,
			TotalChunks: len(chunks),
			FileType:    fileType,
			ChunkData:   c,
		})
		u.authorize(req.Header())

		resp, err := u.client.UploadChunk(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		u.logger.Debug("chunk sent",
			slog.String("upload_id", uploadID),
			slog.Int("received", resp.Msg.Received),
			slog.Int("total", resp.Msg.Total),
		)
		if resp.Msg.Complete {
			if resp.Msg.Dataset == nil {
				return nil, fmt.Errorf("upload %s completed without a dataset", uploadID)
			}
			return &Result{Mode: ModeChunked, Chunks: len(chunks), UploadID: uploadID, Dataset: *resp.Msg.Dataset}, nil
		}
	}
	return nil, fmt.Errorf("upload %s did not complete after %d chunks", uploadID, len(chunks))
}

func (u *Uploader) authorize(h http.Header) {
	if u.token != "" {
		h.Set("Authorization", "Bearer "+u.token)
	}
}

func tooLarge(err error) bool {
	return connect.CodeOf(err) == connect.CodeResourceExhausted || errors.Is(err, ErrPayloadTooLarge)
}

// encodeRows serializes each row once so chunking can be planned by size.
func encodeRows(rows []parser.Record) ([][]byte, int, error) {
	encoded := make([][]byte, len(rows))
	size := 2 // brackets
	for i, r := range rows {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode row %d: %w", i, err)
		}
		encoded[i] = b
		size += len(b) + 1
	}
	return encoded, size, nil
}

// split groups rows into consecutive chunks whose serialized size stays
// within budget. A row larger than budget forms its own chunk. At least one
// chunk is returned so empty uploads still reach the server.
func split(rows []parser.Record, encoded [][]byte, budget int) [][]parser.Record {
	var (
		chunks [][]parser.Record
		start  int
		size   int
	)
	for i := range rows {
		n := len(encoded[i]) + 1
		if i > start && size+n > budget {
			chunks = append(chunks, rows[start:i])
			start, size = i, 0
		}
		size += n
	}
	chunks = append(chunks, rows[start:])
	return chunks
}

// NewHTTPClient wraps base so a 413 answer surfaces as ErrPayloadTooLarge.
func NewHTTPClient(base *http.Client) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	wrapped := *base
	wrapped.Transport = payloadLimitTransport{next: transport}
	return &wrapped
}

type payloadLimitTransport struct {
	next http.RoundTripper
}

func (t payloadLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, ErrPayloadTooLarge
	}
	return resp, nil
}
