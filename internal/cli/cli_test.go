package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/gamebook/internal/config"
	"github.com/aretw0/gamebook/pkg/adapters/badger"
	"github.com/aretw0/gamebook/pkg/adapters/file"
	"github.com/aretw0/gamebook/pkg/adapters/memory"
	"github.com/aretw0/gamebook/pkg/adapters/redis"
	"github.com/aretw0/gamebook/pkg/adapters/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Dir = t.TempDir()
	cfg.Store.Driver = driver
	cfg.Log.Level = "error"
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestSetup_Drivers(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		driver string
		check  func(t *testing.T, env *Env)
	}{
		{config.DriverMemory, func(t *testing.T, env *Env) { assert.IsType(t, &memory.Store{}, env.Store) }},
		{config.DriverFile, func(t *testing.T, env *Env) { assert.IsType(t, &file.Store{}, env.Store) }},
		{config.DriverSQLite, func(t *testing.T, env *Env) { assert.IsType(t, &sqlite.Store{}, env.Store) }},
		{config.DriverBadger, func(t *testing.T, env *Env) { assert.IsType(t, &badger.Store{}, env.Store) }},
		{config.DriverRedis, func(t *testing.T, env *Env) { assert.IsType(t, &redis.Store{}, env.Store) }},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg := testConfig(t, tt.driver)
			cfg.Store.Redis.Addr = mr.Addr()

			env, err := Setup(cfg, false)
			require.NoError(t, err)
			defer env.Close()
			tt.check(t, env)

			ctx := context.Background()
			_, err = env.Engine.AddLines(ctx, "s1", "1,2\n2,3t", "")
			require.NoError(t, err)

			res, err := env.Engine.ShortestRequiredPath(ctx, "s1", "", "")
			require.NoError(t, err)
			assert.Equal(t, []string{"1", "2", "3"}, res.Path)

			ids, err := env.Store.List(ctx)
			require.NoError(t, err)
			assert.Contains(t, ids, "s1")
		})
	}
}

func TestSetup_RedisLockWithFileStore(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, config.DriverFile)
	cfg.Store.Redis.Addr = mr.Addr()
	cfg.Store.Redis.Lock = true
	require.NoError(t, cfg.Validate())

	env, err := Setup(cfg, false)
	require.NoError(t, err)
	defer env.Close()

	_, err = env.Engine.AddLines(context.Background(), "locked", "a,b", "")
	require.NoError(t, err)

	// The lock is released once the update commits.
	assert.False(t, mr.Exists("gamebook:lock:locked"))
}

func TestSetup_Metrics(t *testing.T) {
	env, err := Setup(testConfig(t, config.DriverMemory), false)
	require.NoError(t, err)
	defer env.Close()

	_, err = env.Engine.AddLines(context.Background(), "m", "1,2\n3", "")
	require.NoError(t, err)

	families, err := env.Registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "gamebook_lines_parsed_total")
	assert.Contains(t, names, "gamebook_malformed_lines_total")
}

func TestRunShell_Headless(t *testing.T) {
	env, err := Setup(testConfig(t, config.DriverMemory), false)
	require.NoError(t, err)
	defer env.Close()

	ctx := context.Background()
	_, err = env.Engine.AddLines(ctx, "play", "old,line", "")
	require.NoError(t, err)

	var out bytes.Buffer
	err = RunShell(ctx, env, ShellOptions{
		SessionID: "play",
		Fresh:     true,
		Headless:  true,
		In:        strings.NewReader("1,2\n2,3t\n:path\n:quit\n"),
		Out:       &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "1 -> 2 -> 3")

	g, err := env.Engine.Graph(ctx, "play")
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 3)
}

func TestContextReader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewContextReader(ctx, strings.NewReader("abcde"))

	buf := make([]byte, 3)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf[:n]))

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "de", string(rest))

	cancel()
	_, err = r.Read(buf)
	assert.ErrorIs(t, err, errInterrupted)
}

func TestContextReader_UnblocksOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	r := NewContextReader(ctx, pr)

	done := make(chan error, 1)
	go func() {
		_, err := r.Read(make([]byte, 8))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, errInterrupted)
		assert.NoError(t, handleExecutionError(err))
	case <-time.After(time.Second):
		t.Fatal("read did not return after cancel")
	}
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(nil))
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.NoError(t, handleExecutionError(io.EOF))
	assert.NoError(t, handleExecutionError(errInterrupted))
	assert.Error(t, handleExecutionError(os.ErrPermission))
}

func TestWatchImport_Reloads(t *testing.T) {
	env, err := Setup(testConfig(t, config.DriverMemory), false)
	require.NoError(t, err)
	defer env.Close()

	path := filepath.Join(t.TempDir(), "trail.csv")
	require.NoError(t, os.WriteFile(path, []byte("from,to,chosen,tag,is_secret\n1,2,True,,False\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- WatchImport(ctx, env, "watched", path)
	}()

	edgeCount := func() int {
		edges, err := env.Engine.ClassifiedEdges(context.Background(), "watched")
		if err != nil {
			return -1
		}
		return len(edges)
	}
	require.Eventually(t, func() bool { return edgeCount() == 1 }, 2*time.Second, 20*time.Millisecond)

	// Give the watcher time to subscribe before the rewrite.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("from,to,chosen,tag,is_secret\n1,2,True,,False\n2,3,True,End,False\n"), 0644))
	assert.Eventually(t, func() bool { return edgeCount() == 2 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory)
	cfg.HTTP.ShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, cfg, ServeOptions{Addr: "127.0.0.1:0", Out: io.Discard})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
