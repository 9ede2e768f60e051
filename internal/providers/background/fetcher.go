package background

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bannerserver/internal/domain/banner"
	"bannerserver/internal/imageutil"
	"bannerserver/internal/infra"
	"bannerserver/internal/storage"
)

const maxFetchBytes = 32 << 20

// Fetcher resolves an asset reference to bytes. References are http(s)
// URLs, data URIs or FileStore keys.
type Fetcher struct {
	client *http.Client
	store  *storage.FileStore
}

func NewFetcher(client *http.Client, store *storage.FileStore) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Fetcher{client: client, store: store}
}

func (f *Fetcher) Fetch(ctx context.Context, ref string) (banner.Asset, error) {
	ref = strings.TrimSpace(ref)
	lower := strings.ToLower(ref)
	var (
		data []byte
		err  error
	)
	switch {
	case ref == "":
		return banner.Asset{}, banner.ErrBackgroundMissing
	case strings.HasPrefix(lower, "data:"):
		data, err = imageutil.DecodeBase64(ref)
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		data, err = f.download(ctx, ref)
	default:
		if f.store == nil {
			return banner.Asset{}, fmt.Errorf("fetch %q: no storage configured", ref)
		}
		data, err = f.store.Read(ctx, ref)
	}
	if err != nil {
		return banner.Asset{}, err
	}
	if len(data) == 0 {
		return banner.Asset{}, banner.ErrBackgroundMissing
	}
	return banner.Asset{Ref: ref, MIME: imageutil.SniffMIME(data), Data: data}, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, infra.Retryable(fmt.Errorf("fetch: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("fetch: status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, infra.Retryable(err)
		}
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, infra.Retryable(fmt.Errorf("fetch: read body: %w", err))
	}
	if len(data) > maxFetchBytes {
		return nil, errors.New("fetch: image too large")
	}
	return data, nil
}
