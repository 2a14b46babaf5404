package export

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-worksheets/internal/storage"
)

const defaultMaxImageBytes = 5 << 20

// ImageEmbedder replaces remote image URLs with data URIs so an exported
// document has no network dependencies. Fetched bytes are cached in the blob
// store under a hash of the URL.
type ImageEmbedder struct {
	client   *http.Client
	store    storage.BlobStore
	maxBytes int64
	log      *zap.Logger
}

func NewImageEmbedder(store storage.BlobStore, timeout time.Duration, maxBytes int64, log *zap.Logger) *ImageEmbedder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ImageEmbedder{
		client:   &http.Client{Timeout: timeout},
		store:    store,
		maxBytes: maxBytes,
		log:      log,
	}
}

// Embed returns src unchanged for data URIs, unknown schemes and fetch
// failures.
func (m *ImageEmbedder) Embed(ctx context.Context, src string) string {
	lower := strings.ToLower(src)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return src
	}
	data, ctype, err := m.load(ctx, src)
	if err != nil {
		m.log.Warn("image embed failed", zap.String("url", src), zap.Error(err))
		return src
	}
	return "data:" + ctype + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func imageKey(src string) string {
	sum := sha256.Sum256([]byte(src))
	return "images/" + hex.EncodeToString(sum[:])
}

func (m *ImageEmbedder) load(ctx context.Context, src string) ([]byte, string, error) {
	key := imageKey(src)
	if m.store != nil {
		data, ctype, err := m.store.Get(ctx, key)
		if err == nil {
			return data, ctype, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			m.log.Warn("image cache read", zap.String("key", key), zap.Error(err))
		}
	}

	data, ctype, err := m.fetch(ctx, src)
	if err != nil {
		return nil, "", err
	}
	if m.store != nil {
		if err := m.store.Put(ctx, key, data, ctype); err != nil {
			m.log.Warn("image cache write", zap.String("key", key), zap.Error(err))
		}
	}
	return data, ctype, nil
}

func (m *ImageEmbedder) fetch(ctx context.Context, src string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", err
	}
	res, err := m.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return nil, "", fmt.Errorf("fetch image: %s", res.Status)
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, m.maxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > m.maxBytes {
		return nil, "", fmt.Errorf("fetch image: larger than %d bytes", m.maxBytes)
	}
	ctype, _, _ := mime.ParseMediaType(res.Header.Get("Content-Type"))
	if !strings.HasPrefix(ctype, "image/") {
		ctype = http.DetectContentType(data)
	}
	if !strings.HasPrefix(ctype, "image/") {
		return nil, "", fmt.Errorf("fetch image: unexpected content type %q", ctype)
	}
	return data, ctype, nil
}
