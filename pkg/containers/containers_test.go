package containers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blitz-ai/feedback-console/pkg/apperrors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Container
		wantErr bool
	}{
		{"official mlb", "mlb", MLBOfficial, false},
		{"unofficial nba", "nba-unofficial", NBAUnofficial, false},
		{"legacy user feedback", "mlb-user-feedback", UserFeedback, false},
		{"unknown container", "nhl", "", true},
		{"empty name", "", "", true},
		{"case sensitive", "MLB", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrInvalidContainer))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransferTarget(t *testing.T) {
	tests := []struct {
		source Container
		want   Container
	}{
		{MLBUnofficial, MLBOfficial},
		{NBAUnofficial, NBAOfficial},
		{PartnerHelpful, MLBOfficial},
		{PartnerUnhelpful, MLBOfficial},
		{UserFeedback, MLBOfficial},
		{UserUnhelpful, MLBOfficial},
	}

	for _, tt := range tests {
		dst, ok := TransferTarget(tt.source)
		require.True(t, ok, "expected %s to be a transfer source", tt.source)
		assert.Equal(t, tt.want, dst)
	}

	// Official containers are never transfer sources.
	_, ok := TransferTarget(MLBOfficial)
	assert.False(t, ok)
	_, ok = TransferTarget(NBAOfficial)
	assert.False(t, ok)
}

func TestValidateTransferPair(t *testing.T) {
	require.NoError(t, ValidateTransferPair(MLBUnofficial, MLBOfficial))
	require.NoError(t, ValidateTransferPair(NBAUnofficial, NBAOfficial))

	err := ValidateTransferPair(MLBUnofficial, NBAOfficial)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidContainer))

	err = ValidateTransferPair(MLBOfficial, MLBUnofficial)
	require.Error(t, err)
}

func TestIsOfficial(t *testing.T) {
	assert.True(t, IsOfficial(MLBOfficial))
	assert.True(t, IsOfficial(NBAOfficial))
	assert.False(t, IsOfficial(MLBUnofficial))
	assert.False(t, IsOfficial(UserFeedback))
}
