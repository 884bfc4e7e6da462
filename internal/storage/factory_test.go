package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/gathering-api/internal/config"
)

func TestValidateStorageType(t *testing.T) {
	st, err := ValidateStorageType("memory")
	require.NoError(t, err)
	assert.Equal(t, StorageTypeMemory, st)

	st, err = ValidateStorageType("postgres")
	require.NoError(t, err)
	assert.Equal(t, StorageTypePostgres, st)

	_, err = ValidateStorageType("sqlite")
	assert.Error(t, err)
}

func TestCreateMemoryContainer(t *testing.T) {
	container, err := NewFactory(StorageTypeMemory).CreateContainer(&config.Config{})
	require.NoError(t, err)
	defer container.Close()

	require.NoError(t, container.Health(context.Background()))
	assert.NotNil(t, container.Polls())
	assert.NotNil(t, container.Directory())

	drift, err := container.CounterDrift(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drift)
}

func TestCreateUnknownContainer(t *testing.T) {
	_, err := NewFactory(StorageType("cassandra")).CreateContainer(&config.Config{})
	assert.Error(t, err)
}
