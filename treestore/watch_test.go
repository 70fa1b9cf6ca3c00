package treestore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/WillCodeCo/solver-util/actionpath"
	"github.com/WillCodeCo/solver-util/treestore"
)

func TestWatchIndexesMergesConcurrentWriterIndex(t *testing.T) {
	dir := t.TempDir()

	reader, err := treestore.CreateEmpty(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- reader.WatchIndexes(ctx) }()

	writer, err := treestore.CreateEmpty(dir)
	require.NoError(t, err)
	seq, err := actionpath.ParseSequence("x")
	require.NoError(t, err)
	_, err = writer.AddPreflop(sampleConfig(1), seq, true, buildSamplePathTree(t))
	require.NoError(t, err)
	_, err = writer.SaveIndex()
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return reader.Index().Size() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
