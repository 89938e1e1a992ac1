package transit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuery() ScheduleQuery {
	return ScheduleQuery{
		Routes: []RouteStopPair{{RouteID: "r1", StopID: "s1"}},
		Limit:  5,
	}
}

func TestValidateAcceptsWholeSecondOffsets(t *testing.T) {
	query := validQuery()
	query.Routes[0].OffsetSeconds = -30

	require.NoError(t, query.Validate(MaxRestPairs))
}

func TestValidateRejectsFractionalOffset(t *testing.T) {
	query := validQuery()
	query.Routes[0].OffsetSeconds = 1.5

	assert.Error(t, query.Validate(MaxRestPairs))
}

func TestValidateRejectsTooManyPairs(t *testing.T) {
	query := validQuery()
	for i := 0; i < MaxRestPairs; i++ {
		query.Routes = append(query.Routes, RouteStopPair{RouteID: "r", StopID: "s"})
	}

	assert.Error(t, query.Validate(MaxRestPairs))
	assert.NoError(t, query.Validate(MaxLivePairs))
}

func TestValidateClampsLimit(t *testing.T) {
	query := validQuery()
	query.Limit = 50

	require.NoError(t, query.Validate(MaxRestPairs))
	assert.Equal(t, MaxLimit, query.Limit)
}

func TestValidateDefaultsListMode(t *testing.T) {
	query := validQuery()

	require.NoError(t, query.Validate(MaxRestPairs))
	assert.Equal(t, ListModeSequential, query.ListMode)

	query.ListMode = "everything"
	assert.Error(t, query.Validate(MaxRestPairs))
}

func TestContentKeyIdentity(t *testing.T) {
	first := validQuery()
	second := validQuery()

	assert.Equal(t, first.ContentKey(), second.ContentKey())

	second.Limit = 6
	assert.NotEqual(t, first.ContentKey(), second.ContentKey())

	// Explicit default list mode and absent list mode are the same query
	third := validQuery()
	third.ListMode = ListModeSequential
	assert.Equal(t, first.ContentKey(), third.ContentKey())
}

func TestBoundingBoxUnion(t *testing.T) {
	first := BoundingBox{MinLongitude: -1, MinLatitude: 50, MaxLongitude: 1, MaxLatitude: 52}
	second := BoundingBox{MinLongitude: -3, MinLatitude: 51, MaxLongitude: 0, MaxLatitude: 54}

	union := first.Union(second)

	assert.Equal(t, BoundingBox{MinLongitude: -3, MinLatitude: 50, MaxLongitude: 1, MaxLatitude: 54}, union)

	var zero BoundingBox
	assert.Equal(t, first, zero.Union(first))
}
