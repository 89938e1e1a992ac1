package gtfsdb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestDecodeService(t *testing.T) {
	document := Service{
		FeedCode:  "feedA",
		ServiceID: "SVC1",
		Monday:    true,
	}

	result := mongo.NewSingleResultFromDocument(document, nil, nil)

	service, err := decodeService(result, "SVC1")
	require.NoError(t, err)
	require.NotNil(t, service)
	assert.Equal(t, "SVC1", service.ServiceID)
	assert.True(t, service.Monday)
}

func TestDecodeServiceUnknownServiceNeverRuns(t *testing.T) {
	result := mongo.NewSingleResultFromDocument(Service{}, mongo.ErrNoDocuments, nil)

	service, err := decodeService(result, "SVC-missing")
	require.NoError(t, err)
	assert.Nil(t, service)
}

func TestDecodeServicePropagatesStoreFailures(t *testing.T) {
	storeErr := errors.New("connection reset by peer")
	result := mongo.NewSingleResultFromDocument(Service{}, storeErr, nil)

	service, err := decodeService(result, "SVC1")
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.Nil(t, service)
}
