package app

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/stretchr/testify/require"

	"go.shoplens.io/shoplens/db"
	"go.shoplens.io/shoplens/migrations"
)

var timeNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func timeNowFn() time.Time {
	return timeNow
}

type testApp struct {
	*App
	stdout, stderr *bytes.Buffer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	// A unique name per app, to avoid clashing of in-memory SQLite DBs.
	rndName := make([]byte, 12)
	_, err := rand.Read(rndName)
	require.NoError(t, err)

	// Not using just :memory: to avoid 'no such table' issue.
	// See https://github.com/mattn/go-sqlite3#faq
	d, err := db.Open(t.Context(),
		fmt.Sprintf("file:shoplens-%x?mode=memory&cache=shared", rndName),
		timeNowFn, migrations.All())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = d.Close()
	})

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	opts := []Option{
		WithTimeNow(timeNowFn),
		WithDB(d),
		WithContext(t.Context()),
		WithFDs(strings.NewReader(""), stdout, stderr),
		WithFS(memoryfs.New()),
		WithLogger(false, false),
	}
	a, err := New("shoplens", "/config.json", "/data", opts...)
	require.NoError(t, err)

	return &testApp{App: a, stdout: stdout, stderr: stderr}
}

// run executes a single CLI invocation, resetting the captured outputs first.
func (ta *testApp) run(args ...string) error {
	ta.stdout.Reset()
	ta.stderr.Reset()

	return ta.Run(args)
}
