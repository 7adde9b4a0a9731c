// SPDX-License-Identifier: GPL-2.0-only

package lzma2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncoderConfig_ValidateRejectsExcessiveLCPlusLP(t *testing.T) {
	cfg := EncoderConfig{LC: 4, LP: 1, PB: 2, DictSize: minDictSize}
	require.ErrorIs(t, cfg.validate(), ErrInvalidConfig)
}

func TestEncoderConfig_ValidateRejectsExcessivePB(t *testing.T) {
	cfg := EncoderConfig{LC: 3, LP: 0, PB: maxPB + 1, DictSize: minDictSize}
	require.ErrorIs(t, cfg.validate(), ErrInvalidConfig)
}

func TestEncoderConfig_ValidateRejectsTooSmallDictSize(t *testing.T) {
	cfg := EncoderConfig{LC: 3, LP: 0, PB: 2, DictSize: minDictSize - 1}
	require.ErrorIs(t, cfg.validate(), ErrInvalidConfig)
}

func TestEncoderConfig_ValidateAcceptsBoundaryValues(t *testing.T) {
	cfg := EncoderConfig{LC: 4, LP: 0, PB: maxPB, DictSize: minDictSize}
	require.NoError(t, cfg.validate())
}

func TestPreset_ClampsOutOfRangeLevels(t *testing.T) {
	require.Equal(t, presetTable[0], Preset(-5))
	require.Equal(t, presetTable[9], Preset(42))
	require.Equal(t, presetTable[3], Preset(3))
}

func TestPreset_LowLevelsAreFastHighLevelsFavorRatio(t *testing.T) {
	low := Preset(0)
	high := Preset(9)
	require.True(t, low.Fast)
	require.False(t, high.Fast)
	require.Less(t, low.DictSize, high.DictSize)
	require.Equal(t, MatchFinderBT4, high.MatchFinder)
}

func TestEncoderConfig_WorkerCountDefaultsToGOMAXPROCS(t *testing.T) {
	cfg := EncoderConfig{Workers: 0}
	require.Greater(t, cfg.workerCount(), 0)

	cfg.Workers = 7
	require.Equal(t, 7, cfg.workerCount())
}
