package yamlconf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/splatbench/internal/config"
)

func TestParse_SingleBenchmark(t *testing.T) {
	data := []byte(`
name: smoke
scenes: [bonsai, garden]
result_root: results/smoke
data_factors:
  flowers: 2
run:
  max_steps: 300
  steps_scaler: 1
  packed: false
  device_ids: [0]
archive:
  endpoint: localhost:9000
  bucket: benchmarks
  prefix: nightly
`)
	got, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, got, 1)

	want := config.Default()
	want.Name = "smoke"
	want.Scenes = []string{"bonsai", "garden"}
	want.ResultRoot = "results/smoke"
	want.DataFactors = map[string]int{"flowers": 2}
	want.Run.MaxSteps = 300
	want.Run.StepsScaler = 1
	want.Run.Packed = false
	want.Run.DeviceIDs = []int{0}
	want.Archive = &config.Archive{Endpoint: "localhost:9000", Bucket: "benchmarks", Prefix: "nightly"}

	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("benchmark mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 299, got[0].Checkpoint())
}

func TestParse_List(t *testing.T) {
	data := []byte(`
benchmarks:
  - name: one
    scenes: [room]
  - name: two
    scenes: [stump]
    run:
      device_ids: []
`)
	got, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0].Name)
	assert.Equal(t, []int{0, 1, 2, 3}, got[0].Run.DeviceIDs)
	assert.Equal(t, "two", got[1].Name)
	assert.Empty(t, got[1].Run.DeviceIDs)
}

func TestParse_SingleBenchmarkWithoutName(t *testing.T) {
	testCases := []struct {
		name  string
		data  string
		check func(t *testing.T, b *config.Benchmark)
	}{
		{
			name: "result_root only",
			data: "result_root: results/only\n",
			check: func(t *testing.T, b *config.Benchmark) {
				assert.Equal(t, "results/only", b.ResultRoot)
			},
		},
		{
			name: "checkpoint_step only",
			data: "checkpoint_step: 209\n",
			check: func(t *testing.T, b *config.Benchmark) {
				assert.Equal(t, 209, b.Checkpoint())
			},
		},
		{
			name: "data_factors only",
			data: "data_factors:\n  flowers: 2\n",
			check: func(t *testing.T, b *config.Benchmark) {
				assert.Equal(t, 2, b.Table()["flowers"])
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse([]byte(tc.data))
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, config.Default().Name, got[0].Name)
			tc.check(t, got[0])
		})
	}
}

func TestParse_BenchmarksListOnly(t *testing.T) {
	got, err := Parse([]byte("benchmarks:\n  - name: one\n"))
	require.NoError(t, err)
	require.Len(t, got, 1, "a document holding only a list adds no inline benchmark")
	assert.Equal(t, "one", got[0].Name)
}

func TestLoad_FileWithoutName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yml")
	require.NoError(t, os.WriteFile(path, []byte("result_root: results/nightly\n"), 0o600))

	got, err := NewLoader().Load(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, "results/nightly", got.ResultRoot)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("name: x\nunknown_key: 1\n"))
	require.Error(t, err)

	_, err = Parse([]byte("benchmarks:\n  - scenes: [room]\n"))
	require.ErrorContains(t, err, "name is required")

	_, err = Parse([]byte("name: x\nrun:\n  max_steps: lots\n"))
	require.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: file\nscenes: [kitchen]\n"), 0o600))

	got, err := NewLoader().Load(context.Background(), path, "file")
	require.NoError(t, err)
	assert.Equal(t, []string{"kitchen"}, got.Scenes)

	_, err = NewLoader().Load(context.Background(), path, "other")
	require.ErrorContains(t, err, `"other" not found`)
}
