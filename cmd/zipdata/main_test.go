package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/forecast-service/internal/location"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawDataset = "\ufefflongitude,latitude,PHYSICAL STATE,PHYSICAL CITY,PHYSICAL ZIP,extra\n" +
	"-71.1042,42.3647,ma,Cambridge,02139,x\n" +
	"-72.5887,42.1029,MA,SPRINGFIELD,01103,y\n" +
	"-71.0000,42.0000,MA,DUPLICATE,02139,z\n"

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_Normalize(t *testing.T) {
	in := writeTemp(t, rawDataset)
	out := filepath.Join(t.TempDir(), "out.csv")
	var stdout, stderr bytes.Buffer

	code := run([]string{"-in", in, "-out", out}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "wrote 2 places (1 duplicates dropped)")

	places, err := location.LoadDataset(out)
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "01103", places[0].Zip)
	assert.Equal(t, "02139", places[1].Zip)
	assert.Equal(t, "CAMBRIDGE", places[1].City)
	assert.Equal(t, "MA", places[1].State)
}

func TestRun_CheckEmbedded(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-check"}, &stdout, &stderr)
	assert.Equal(t, 0, code, stdout.String())
	assert.Contains(t, stdout.String(), "All checks passed.")
}

func TestRun_CheckFailures(t *testing.T) {
	in := writeTemp(t, rawDataset+"-70.0,41.0,Mass,Somewhere,123,w\n")
	var stdout, stderr bytes.Buffer

	code := run([]string{"-check", "-in", in}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	report := stdout.String()
	assert.Contains(t, report, "ZIP 02139 already on line 2")
	assert.Contains(t, report, `ZIP "123"`)
	assert.Contains(t, report, `state "ma"`)
	assert.Contains(t, report, "Checks FAILED.")
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &stdout, &stderr))
}

func TestRun_BadInput(t *testing.T) {
	in := writeTemp(t, "zip,city\n02139,Cambridge\n")
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"-check", "-in", in}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "missing column")
}
