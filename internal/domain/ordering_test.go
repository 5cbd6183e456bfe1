package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextPosition(t *testing.T) {
	require.Equal(t, 0, NextPosition(0))
	require.Equal(t, 6, NextPosition(6))
	require.Equal(t, 0, NextPosition(-3))
}

func TestValidateOrder(t *testing.T) {
	current := []int64{1, 2, 3}

	cases := []struct {
		name      string
		requested []int64
		wantErr   bool
	}{
		{name: "permutation", requested: []int64{3, 1, 2}},
		{name: "same order", requested: []int64{1, 2, 3}},
		{name: "missing id", requested: []int64{1, 2}, wantErr: true},
		{name: "extra id", requested: []int64{1, 2, 3, 4}, wantErr: true},
		{name: "foreign id", requested: []int64{1, 2, 9}, wantErr: true},
		{name: "duplicate id", requested: []int64{1, 1, 2}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateOrder(current, tc.requested)
			if tc.wantErr {
				require.Error(t, err)
				require.True(t, errors.Is(err, ErrInvalidOrder))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateOrderEmptyDestination(t *testing.T) {
	require.NoError(t, ValidateOrder(nil, []int64{}))
}

func TestApplyOrder(t *testing.T) {
	activities := []Activity{
		{ID: 10, Position: 0},
		{ID: 11, Position: 1},
		{ID: 12, Position: 2},
	}

	out := ApplyOrder(activities, []int64{12, 10, 11})

	require.Equal(t, []int64{12, 10, 11}, IDs(out))
	for i, a := range out {
		require.Equal(t, i, a.Position)
	}
	require.True(t, IsContiguous(out))
	require.Equal(t, 0, activities[0].Position, "input must not be modified")
}

func TestCompactClosesGaps(t *testing.T) {
	activities := []Activity{
		{ID: 3, Position: 4},
		{ID: 1, Position: 0},
		{ID: 2, Position: 2},
	}
	require.False(t, IsContiguous(activities))

	out := Compact(activities)

	require.Equal(t, []int64{1, 2, 3}, IDs(out))
	require.True(t, IsContiguous(out))
}

func TestIsContiguous(t *testing.T) {
	require.True(t, IsContiguous(nil))
	require.True(t, IsContiguous([]Activity{{Position: 1}, {Position: 0}}))
	require.False(t, IsContiguous([]Activity{{Position: 0}, {Position: 0}}))
	require.False(t, IsContiguous([]Activity{{Position: 1}}))
}
