package profile_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"ms-calendar/internal/models"
	"ms-calendar/internal/profile"
)

// TestRefCacheIntegration exercises the reference cache against a real Redis
// container.
func TestRefCacheIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)

	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})
	defer client.Close()

	cache := profile.NewRefCache(client, time.Minute)

	// Cold cache misses.
	assert.Nil(t, cache.Get(ctx, "p1"))

	ref := models.ProfileRef{ID: "p1", Name: "Alice", Timezone: "America/New_York"}
	cache.Set(ctx, ref)

	got := cache.Get(ctx, "p1")
	require.NotNil(t, got)
	assert.Equal(t, ref, *got)

	// Mutation invalidates; the next read must go back to the database.
	cache.Invalidate(ctx, "p1")
	assert.Nil(t, cache.Get(ctx, "p1"))
}
