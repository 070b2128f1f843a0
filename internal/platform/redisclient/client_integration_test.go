//go:build integration

package redisclient_test

import (
	"context"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"worldcup-predict/internal/platform/config"
	"worldcup-predict/internal/platform/redisclient"
	"worldcup-predict/pkg/testutil/containers"
)

func dial(t *testing.T, rawAddr string) config.Redis {
	t.Helper()
	u, err := url.Parse(rawAddr)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return config.Redis{Host: u.Hostname(), Port: port}
}

func TestClient_SetExGetStringIncrExpireDel(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	t.Cleanup(func() { _ = rc.Container.Terminate(context.Background()) })

	client, err := redisclient.New(dial(t, rc.Addr))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()

	require.NoError(t, client.SetEx(ctx, "otp:send:09120000000", "123456", time.Minute))

	val, err := client.GetString(ctx, "otp:send:09120000000")
	require.NoError(t, err)
	require.Equal(t, "123456", val)

	exists, err := client.Exists(ctx, "otp:send:09120000000")
	require.NoError(t, err)
	require.True(t, exists)

	n, err := client.Incr(ctx, "otp:verify-attempts:09120000000")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	n, err = client.Incr(ctx, "otp:verify-attempts:09120000000")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	require.NoError(t, client.Expire(ctx, "otp:verify-attempts:09120000000", time.Minute))

	require.NoError(t, client.Del(ctx, "otp:send:09120000000", "otp:verify-attempts:09120000000"))

	_, err = client.GetString(ctx, "otp:send:09120000000")
	require.True(t, redisclient.IsMissing(err))
}
