package partsservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/partstrader/client_tools/internal/client_tools_service/domain"
)

const compatiblePartsPath = "/parts/compatible"

// RemoteLookup calls the parts-trading service over HTTP.
type RemoteLookup struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewRemoteLookup creates a client for the parts service at baseURL.
// If httpClient is nil a client with the given timeout is used.
func NewRemoteLookup(logger *slog.Logger, baseURL, apiKey string, timeout time.Duration, httpClient *http.Client) *RemoteLookup {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &RemoteLookup{
		logger:     logger.With("lookup", "remote"),
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

func (l *RemoteLookup) Name() string {
	return "parts_service"
}

// RemoteErrorResponse is the error body returned by the parts service.
type RemoteErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (l *RemoteLookup) Lookup(ctx context.Context, part domain.PartItem) ([]domain.PartItem, error) {
	reqBytes, err := json.Marshal(part)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lookup request: %w", err)
	}

	url := l.baseURL + compatiblePartsPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if l.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+l.apiKey)
	}

	l.logger.DebugContext(ctx, "Sending lookup to parts service", "url", url, "part_number", part.PartNumber)

	httpResp, err := l.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("parts service request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading parts service response (status %d): %w", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		var errResp RemoteErrorResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error != "" {
			return nil, fmt.Errorf("parts service returned status %d: %s", httpResp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("parts service returned status %d", httpResp.StatusCode)
	}

	var parts []domain.PartItem
	if err := json.Unmarshal(body, &parts); err != nil {
		return nil, fmt.Errorf("decoding parts service response: %w", err)
	}
	for _, p := range parts {
		if p.Availability < 0 || p.Price.LessThan(minPrice) {
			return nil, fmt.Errorf("parts service returned invalid stock or price for %s", p.PartNumber)
		}
	}

	l.logger.DebugContext(ctx, "Parts service lookup complete", "part_number", part.PartNumber, "count", len(parts))
	return parts, nil
}
