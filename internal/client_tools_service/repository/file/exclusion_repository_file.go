package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/partstrader/client_tools/internal/client_tools_service/domain"
)

// ExclusionRepository reads the exclusion list from a reference file.
// The file is re-read on every call so monthly replacements take effect
// without a restart. .yaml and .yml files are decoded as YAML, anything
// else as a JSON list of records.
type ExclusionRepository struct {
	path   string
	logger *slog.Logger
}

func NewExclusionRepository(path string, logger *slog.Logger) *ExclusionRepository {
	return &ExclusionRepository{path: path, logger: logger.With("component", "exclusion_repository_file")}
}

func (r *ExclusionRepository) LoadExclusions(ctx context.Context) ([]domain.ExclusionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("reading exclusion list %s: %w", r.path, err)
	}

	var records []domain.ExclusionRecord
	switch strings.ToLower(filepath.Ext(r.path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing exclusion list %s: %w", r.path, err)
	}

	r.logger.DebugContext(ctx, "Loaded exclusion list", "path", r.path, "records", len(records))
	return records, nil
}
