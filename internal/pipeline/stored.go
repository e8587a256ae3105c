package pipeline

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/julianshen/unityctx/internal/analysis"
	"github.com/julianshen/unityctx/internal/catalog"
	"github.com/julianshen/unityctx/internal/synth"
)

// Patterns returns the static Unity API pattern catalog. It never touches
// the analyzer or any run state.
func (s *Service) Patterns() (*catalog.Catalog, error) {
	c, err := catalog.Default()
	if err != nil {
		return nil, analysis.Wrap(analysis.Internal, err, "loading pattern catalog")
	}
	return c, nil
}

// RenderStored renders a saved JSON analysis result without invoking the
// analyzer. The file must hold a JSON object.
func (s *Service) RenderStored(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", analysis.Errorf(analysis.InvalidRequest, "analysis_result_path is required")
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", analysis.Errorf(analysis.PathNotFound, "analysis result file not found: %s", path)
	}
	if err != nil {
		return "", analysis.Wrap(analysis.Internal, err, "reading analysis result")
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return "", analysis.Wrap(analysis.InvalidRequest, err, "parsing analysis result %s", path)
	}
	if result == nil {
		result = map[string]any{}
	}
	s.logger.Debug("rendering stored result", "path", path)
	return synth.StoredResult(result), nil
}
