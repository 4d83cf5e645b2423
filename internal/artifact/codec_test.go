package artifact

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiller/internal/model"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	graph := model.PolicyGraph{
		InWidth: 3,
		Layers: []model.Layer{
			{OutWidth: 2, Activation: "tanh", Weights: []float32{0.1, -0.2, 0.3, 0.4, 0.5, -0.6}, Biases: []float32{0.01, -0.02}},
			{OutWidth: 1, Activation: "identity", Weights: []float32{1.5, -2.5}, Biases: []float32{0.5}},
		},
	}

	buf := &bytes.Buffer{}
	require.NoError(t, Encode(buf, graph))

	decoded, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, graph, decoded)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("NOPE\x01\x00")))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Encode(buf, SumGraph(2)))

	raw := buf.Bytes()
	raw[4] = 9 // version low byte

	_, err := Decode(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeRejectsOversizedWidths(t *testing.T) {
	// Widths come from untrusted file bytes; a crafted header must yield an
	// error, never an overflowing allocation.
	craft := func(inWidth uint32, layer *uint32) []byte {
		buf := &bytes.Buffer{}
		buf.WriteString(Magic)
		require.NoError(t, binary.Write(buf, binary.LittleEndian, Version))
		require.NoError(t, binary.Write(buf, binary.LittleEndian, inWidth))
		if layer == nil {
			require.NoError(t, binary.Write(buf, binary.LittleEndian, uint16(0)))
		} else {
			require.NoError(t, binary.Write(buf, binary.LittleEndian, uint16(1)))
			require.NoError(t, binary.Write(buf, binary.LittleEndian, *layer))
			require.NoError(t, binary.Write(buf, binary.LittleEndian, uint8(0)))
		}
		return buf.Bytes()
	}

	huge := uint32(0xFFFFFFFF)
	_, err := Decode(bytes.NewReader(craft(huge, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input width out of range")

	_, err = Decode(bytes.NewReader(craft(4, &huge)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out width out of range")

	// Both widths individually in range but their product is not.
	max := uint32(MaxWidth)
	_, err = Decode(bytes.NewReader(craft(max, &max)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parameter count out of range")
}

func TestDecodeRejectsTruncatedPayload(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Encode(buf, IdentityGraph(4)))

	raw := buf.Bytes()
	_, err := Decode(bytes.NewReader(raw[:len(raw)-7]))
	assert.Error(t, err)
}

func TestEncodeRejectsMalformedGraph(t *testing.T) {
	badWeights := model.PolicyGraph{
		InWidth: 2,
		Layers:  []model.Layer{{OutWidth: 1, Activation: "identity", Weights: []float32{1}, Biases: []float32{0}}},
	}
	assert.Error(t, Encode(&bytes.Buffer{}, badWeights))

	badActivation := model.PolicyGraph{
		InWidth: 2,
		Layers:  []model.Layer{{OutWidth: 1, Activation: "warp", Weights: []float32{1, 1}, Biases: []float32{0}}},
	}
	assert.Error(t, Encode(&bytes.Buffer{}, badActivation))
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.tilr")
	require.NoError(t, Save(path, SumGraph(3)))

	net, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, net.InputWidth())
	assert.Equal(t, 1, net.OutputWidth())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.tilr"))
	assert.Error(t, err)
}

func TestMetadataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	artifactPath := filepath.Join(dir, "policy.tilr")
	metaPath := MetadataPath(artifactPath)
	assert.Equal(t, filepath.Join(dir, "policy.json"), metaPath)

	meta := Metadata{
		Algorithm:   "SAC",
		ObsDim:      4,
		ActDim:      2,
		ObsShape:    []int{4},
		ActShape:    []int{2},
		InputModel:  "model.zip",
		OutputModel: "policy.tilr",
	}
	require.NoError(t, SaveMetadata(metaPath, meta))

	loaded, err := LoadMetadata(metaPath)
	require.NoError(t, err)
	assert.Equal(t, meta, loaded)
}

func TestLoadMetadataRejectsBadDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	require.NoError(t, SaveMetadata(path, Metadata{Algorithm: "PPO", ObsDim: 0, ActDim: 1}))

	_, err := LoadMetadata(path)
	assert.Error(t, err)
}
