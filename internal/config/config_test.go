package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

func TestValidateRequiresPathOrGitURL(t *testing.T) {
	c := DefaultScanConfig()
	err := c.Validate()
	require.Error(t, err)
	var cfgErr *types.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestValidateAcceptsPath(t *testing.T) {
	c := DefaultScanConfig()
	c.Path = "."
	assert.NoError(t, c.Validate())
}

func TestValidateRejectsUnknownFormat(t *testing.T) {
	c := DefaultScanConfig()
	c.Path = "."
	c.Format = "xml"
	assert.Error(t, c.Validate())
}

func TestValidateRejectsNonPositiveLimits(t *testing.T) {
	c := DefaultScanConfig()
	c.Path = "."
	c.MaxFileSizeMB = 0
	assert.Error(t, c.Validate())

	c2 := DefaultScanConfig()
	c2.Path = "."
	c2.NumJobs = 0
	assert.Error(t, c2.Validate())
}

func TestOrchestratorConfigConvertsMegabytes(t *testing.T) {
	c := DefaultScanConfig()
	c.MaxFileSizeMB = 2
	oc := c.OrchestratorConfig()
	assert.Equal(t, int64(2*1024*1024), oc.Limits.MaxFileSize)
}

func TestPostFilterConfigParsesConfidence(t *testing.T) {
	c := DefaultScanConfig()
	c.MinConfidence = "high"
	pf, err := c.PostFilterConfig()
	require.NoError(t, err)
	assert.Equal(t, types.ConfidenceHigh, pf.MinConfidence)
}

func TestPostFilterConfigRejectsBadConfidence(t *testing.T) {
	c := DefaultScanConfig()
	c.MinConfidence = "critical"
	_, err := c.PostFilterConfig()
	assert.Error(t, err)
}

func TestSourceLimitsDisablesExtraction(t *testing.T) {
	c := DefaultScanConfig()
	c.NoExtractArchives = true
	lim := c.SourceLimits()
	assert.Empty(t, lim.ExtractArchives)
}
