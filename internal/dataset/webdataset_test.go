package dataset

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamShardPairsEntries(t *testing.T) {
	shard := writeShard(t, []filePair{
		{key: "000001", logits: []float64{0.1, 0.9}, label: 1},
		{key: "000002", logits: []float64{2, -1}, label: 0},
	})

	samples, err := drain(StreamShard(context.Background(), shard, 4))
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, Sample{Key: "000001", Logits: []float64{0.1, 0.9}, Label: 1}, samples[0])
	assert.Equal(t, 0, samples[1].Label)
}

func TestStreamShardIncompletePair(t *testing.T) {
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	addTarEntry(tw, "000001.logits", []byte("[1, 2]"))
	addTarEntry(tw, "000001.txt", []byte("ignored"))
	require.NoError(t, tw.Close())
	path := filepath.Join(t.TempDir(), "shard-000000.tar")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	_, err := drain(StreamShard(context.Background(), path, 4))
	assert.ErrorContains(t, err, "1 samples incomplete")
}

func TestStreamShardBadLabel(t *testing.T) {
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	addTarEntry(tw, "000001.cls", []byte("cat"))
	require.NoError(t, tw.Close())
	path := filepath.Join(t.TempDir(), "shard-000000.tar")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	_, err := drain(StreamShard(context.Background(), path, 4))
	assert.ErrorContains(t, err, "parse label")
}

func TestStreamShardCanceled(t *testing.T) {
	shard := writeShard(t, []filePair{{key: "000001", logits: []float64{1}, label: 0}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := drain(StreamShard(ctx, shard, 4))
	assert.ErrorIs(t, err, context.Canceled)
}

func drain(samplesCh <-chan Sample, errCh <-chan error) ([]Sample, error) {
	var samples []Sample
	for s := range samplesCh {
		samples = append(samples, s)
	}
	return samples, <-errCh
}

type filePair struct {
	key    string
	logits []float64
	label  int
}

func writeShard(t *testing.T, pairs []filePair) string {
	t.Helper()
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	for _, p := range pairs {
		payload, err := json.Marshal(p.logits)
		require.NoError(t, err)
		addTarEntry(tw, p.key+".logits", payload)
		addTarEntry(tw, p.key+".cls", []byte(strconv.Itoa(p.label)))
	}
	require.NoError(t, tw.Close())
	path := filepath.Join(t.TempDir(), "shard-000000.tar")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func addTarEntry(tw *tar.Writer, name string, data []byte) {
	hdr := &tar.Header{Name: name, Size: int64(len(data)), Mode: 0o644}
	if err := tw.WriteHeader(hdr); err != nil {
		panic(err)
	}
	if _, err := tw.Write(data); err != nil {
		panic(err)
	}
}
