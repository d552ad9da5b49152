package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreBatch(t *testing.T) {
	svc := newTestService(t, nil)

	report, err := svc.ScoreBatch(context.Background(), testJD, []Document{
		{Name: "weak.txt", Text: "weak resume"},
		{Name: "broken.pdf", Err: errors.New("failed to read pdf")},
		{Name: "strong.txt", Text: "strong resume"},
		{Name: "boom.txt", Text: "boom"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Successful)
	assert.Equal(t, 2, report.Failed)
	require.Equal(t, 4, report.Len())

	names := make([]string, 0, report.Len())
	for _, item := range report.Items {
		names = append(names, item.Filename)
	}
	assert.Equal(t, []string{"strong.txt", "weak.txt", "broken.pdf", "boom.txt"}, names)

	assert.True(t, report.Items[0].Success)
	assert.GreaterOrEqual(t, report.Items[0].Result.FinalScore, report.Items[1].Result.FinalScore)
	assert.Equal(t, "failed to read pdf", report.Items[2].Error)
	assert.Contains(t, report.Items[3].Error, "extractor exploded")
	assert.Nil(t, report.Items[3].Result)
}

func TestScoreBatchLimits(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.ScoreBatch(context.Background(), testJD, nil)
	assert.Error(t, err)

	_, err = svc.ScoreBatch(context.Background(), testJD, make([]Document, MaxBatchSize+1))
	assert.ErrorContains(t, err, "maximum 50 resumes")
}

func TestScoreBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(t, nil).ScoreBatch(ctx, testJD, []Document{{Name: "a", Text: "strong resume"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportByDecision(t *testing.T) {
	report, err := newTestService(t, nil).ScoreBatch(context.Background(), testJD, []Document{
		{Name: "strong.txt", Text: "strong resume"},
		{Name: "weak.txt", Text: "weak resume"},
		{Name: "broken.pdf", Err: errors.New("bad file")},
	})
	require.NoError(t, err)

	grouped := report.ReportByDecision()

	require.Len(t, grouped["FIT"], 1)
	assert.Equal(t, "strong.txt", grouped["FIT"][0]["file"])
	assert.Equal(t, "100.00", grouped["FIT"][0]["score"])
	assert.Equal(t, "3 required, 4.0 found", grouped["FIT"][0]["experience"])

	require.Len(t, grouped["UNFIT"], 1)
	assert.Equal(t, "go, kafka", grouped["UNFIT"][0]["missing skills"])

	require.Len(t, grouped["FAILED"], 1)
	assert.Equal(t, "bad file", grouped["FAILED"][0]["error"])
}

func TestDumpToTmpFile(t *testing.T) {
	report := &BatchReport{ID: "batch-1", Total: 1, Failed: 1, Items: []BatchItem{{Filename: "a.pdf", Error: "bad"}}}

	path, err := report.DumpToTmpFile()
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(path) })

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded BatchReport
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "batch-1", decoded.ID)
	assert.Equal(t, "a.pdf", decoded.Items[0].Filename)
}
