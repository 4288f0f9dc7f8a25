package relational

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blitz-ai/feedback-console/pkg/apperrors"
	"github.com/blitz-ai/feedback-console/pkg/database"
)

func TestNormalizeStatement(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "plain select",
			input: "SELECT * FROM games",
			want:  "SELECT * FROM games",
		},
		{
			name:  "trailing semicolon stripped",
			input: "SELECT * FROM games;",
			want:  "SELECT * FROM games",
		},
		{
			name:  "trailing semicolon with whitespace",
			input: "SELECT * FROM games ;  \n",
			want:  "SELECT * FROM games",
		},
		{
			name:    "two statements rejected",
			input:   "SELECT 1; DROP TABLE games",
			wantErr: true,
		},
		{
			name:  "semicolon inside string literal allowed",
			input: "SELECT * FROM games WHERE note = 'a;b'",
			want:  "SELECT * FROM games WHERE note = 'a;b'",
		},
		{
			name:  "semicolon inside quoted identifier allowed",
			input: `SELECT "weird;col" FROM games`,
			want:  `SELECT "weird;col" FROM games`,
		},
		{
			name:  "escaped quote inside string",
			input: `SELECT * FROM games WHERE team = 'O''Brien; FC'`,
			want:  `SELECT * FROM games WHERE team = 'O''Brien; FC'`,
		},
		{
			name:  "empty input",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeStatement(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMultipleStatements)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatInterval(t *testing.T) {
	tests := []struct {
		name string
		iv   pgtype.Interval
		want string
	}{
		{
			name: "hours minutes seconds",
			iv:   pgtype.Interval{Microseconds: (3*3600 + 14*60 + 9) * 1_000_000, Valid: true},
			want: "3h 14m 9s",
		},
		{
			name: "days folded into hours",
			iv:   pgtype.Interval{Days: 2, Microseconds: 30 * 60 * 1_000_000, Valid: true},
			want: "48h 30m 0s",
		},
		{
			name: "zero",
			iv:   pgtype.Interval{Valid: true},
			want: "0h 0m 0s",
		},
		{
			name: "negative",
			iv:   pgtype.Interval{Microseconds: -90 * 1_000_000, Valid: true},
			want: "-0h 1m 30s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatInterval(tt.iv))
		})
	}
}

func TestConvertValue(t *testing.T) {
	t.Run("interval becomes readable string", func(t *testing.T) {
		got := convertValue(pgtype.Interval{Microseconds: 61 * 1_000_000, Valid: true})
		assert.Equal(t, "0h 1m 1s", got)
	})

	t.Run("null interval becomes nil", func(t *testing.T) {
		assert.Nil(t, convertValue(pgtype.Interval{}))
	})

	t.Run("numeric becomes float64", func(t *testing.T) {
		var n pgtype.Numeric
		require.NoError(t, n.Scan("12.5"))
		got := convertValue(n)
		assert.Equal(t, 12.5, got)
	})

	t.Run("null numeric becomes nil", func(t *testing.T) {
		assert.Nil(t, convertValue(pgtype.Numeric{}))
	})

	t.Run("uuid bytes become dashed string", func(t *testing.T) {
		raw := [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0}
		assert.Equal(t, "12345678-9abc-def0-1234-56789abcdef0", convertValue(raw))
	})

	t.Run("everything else passes through", func(t *testing.T) {
		assert.Equal(t, int64(42), convertValue(int64(42)))
		assert.Equal(t, "text", convertValue("text"))
		assert.Nil(t, convertValue(nil))
	})
}

func TestServiceDatabases(t *testing.T) {
	svc := NewService(map[string]*database.DB{
		"nba": nil,
		"mlb": nil,
	}, 100, nil)

	assert.Equal(t, []string{"mlb", "nba"}, svc.Databases())
}

func TestServiceUnknownDatabase(t *testing.T) {
	svc := NewService(map[string]*database.DB{"mlb": nil}, 100, nil)

	_, err := svc.Execute(context.Background(), "nhl", "SELECT 1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidDatabase)

	err = svc.TestConnection(context.Background(), "nhl")
	assert.ErrorIs(t, err, apperrors.ErrInvalidDatabase)

	_, err = svc.Tables(context.Background(), "nhl")
	assert.ErrorIs(t, err, apperrors.ErrInvalidDatabase)
}

func TestServiceRejectsInvalidStatements(t *testing.T) {
	svc := NewService(map[string]*database.DB{"mlb": nil}, 100, nil)

	_, err := svc.Execute(context.Background(), "mlb", "SELECT 1; SELECT 2")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Execute(context.Background(), "mlb", "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
