package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fecaudit/fecaudit/internal/common"
)

// Bundle is a fully loaded trained model: a version identifier plus one
// fitted sub-model and scaler per feature group. Bundles are immutable after
// load; switching versions means constructing a new detector around a new
// bundle.
type Bundle struct {
	Models  map[string]*IsolationForest
	Scalers map[string]*StandardScaler
	Version string
}

// ModelFileKey and ScalerFileKey name the artifact entries a registry record
// stores for each feature group.
func ModelFileKey(group string) string  { return group + "_model" }
func ScalerFileKey(group string) string { return group + "_scaler" }

// Save writes one model file and one scaler file per group into dir and
// returns the artifact paths keyed the way the registry expects them.
func (b *Bundle) Save(dir string) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}

	files := make(map[string]string, len(Groups)*2)
	for _, group := range Groups {
		modelPath := filepath.Join(dir, fmt.Sprintf("%s_model_%s.json", group, b.Version))
		scalerPath := filepath.Join(dir, fmt.Sprintf("%s_scaler_%s.json", group, b.Version))

		if err := writeJSON(modelPath, b.Models[group]); err != nil {
			return nil, fmt.Errorf("failed to save %s model: %w", group, err)
		}
		if err := writeJSON(scalerPath, b.Scalers[group]); err != nil {
			return nil, fmt.Errorf("failed to save %s scaler: %w", group, err)
		}

		files[ModelFileKey(group)] = modelPath
		files[ScalerFileKey(group)] = scalerPath
	}
	return files, nil
}

// LoadBundle reads a model bundle from the artifact paths recorded in the
// registry. A missing or unreadable artifact fails the whole load; the caller
// is expected to fall back to rules-only detection.
func LoadBundle(version string, files map[string]string) (*Bundle, error) {
	bundle := &Bundle{
		Version: version,
		Models:  make(map[string]*IsolationForest, len(Groups)),
		Scalers: make(map[string]*StandardScaler, len(Groups)),
	}

	for _, group := range Groups {
		modelPath, ok := files[ModelFileKey(group)]
		if !ok || modelPath == "" {
			return nil, fmt.Errorf("%w: missing %s model artifact", common.ErrModelUnloadable, group)
		}
		scalerPath, ok := files[ScalerFileKey(group)]
		if !ok || scalerPath == "" {
			return nil, fmt.Errorf("%w: missing %s scaler artifact", common.ErrModelUnloadable, group)
		}

		forest := &IsolationForest{}
		if err := readJSON(modelPath, forest); err != nil {
			return nil, fmt.Errorf("%w: %s model: %v", common.ErrModelUnloadable, group, err)
		}
		scaler := &StandardScaler{}
		if err := readJSON(scalerPath, scaler); err != nil {
			return nil, fmt.Errorf("%w: %s scaler: %v", common.ErrModelUnloadable, group, err)
		}

		bundle.Models[group] = forest
		bundle.Scalers[group] = scaler
	}

	return bundle, nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o640)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
