package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAll(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), &out, perfOptions{test: "all", size: 8, iter: 3, verbose: true})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "OverlapSum:")
	assert.Contains(t, out.String(), "Direct,  1 workers:")
}

func TestRunRejectsBadOptions(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(context.Background(), &out, perfOptions{test: "kernel", size: 0, iter: 1}))
	assert.Error(t, run(context.Background(), &out, perfOptions{test: "matrix", size: 4, iter: 1}))
}

func TestFlags(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--test", "kernel", "--size", "4", "--iter", "2"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Grid: 4x4")
}
