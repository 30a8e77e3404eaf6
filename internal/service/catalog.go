package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"cafepos/internal/domain"
)

// LoadCatalog fetches the static catalog document from an http(s) URL or
// a local file path. It is called once at startup; the catalog does not
// change while the process runs.
func LoadCatalog(ctx context.Context, source string) (*domain.Catalog, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("failed to load catalog: status %d", resp.StatusCode)
		}
		var doc domain.Catalog
		if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		return &doc, nil
	}

	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	var doc domain.Catalog
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return &doc, nil
}
