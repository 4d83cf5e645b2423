package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Metadata is the side-channel descriptor the exporter writes next to an
// artifact. Operator tooling reads it to pre-fill the declared parameters;
// the adapter core never does.
type Metadata struct {
	Algorithm   string `json:"algorithm"`
	ObsDim      int    `json:"obs_dim"`
	ActDim      int    `json:"act_dim"`
	ObsShape    []int  `json:"obs_shape"`
	ActShape    []int  `json:"act_shape"`
	InputModel  string `json:"input_model,omitempty"`
	OutputModel string `json:"output_model,omitempty"`
}

// MetadataPath returns the descriptor path for an artifact path, replacing
// the extension with .json.
func MetadataPath(artifactPath string) string {
	ext := filepath.Ext(artifactPath)
	return strings.TrimSuffix(artifactPath, ext) + ".json"
}

func SaveMetadata(path string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata %s: %w", path, err)
	}
	if meta.ObsDim <= 0 || meta.ActDim <= 0 {
		return Metadata{}, fmt.Errorf("metadata %s: dimensions must be positive: obs=%d act=%d", path, meta.ObsDim, meta.ActDim)
	}
	return meta, nil
}
