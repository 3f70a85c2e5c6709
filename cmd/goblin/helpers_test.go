package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"goblin/internal/config"
	"goblin/internal/runner"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// executeCommand executes a cobra command and returns its output.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	resetFlags(root)
	// Mock exit
	oldExit := exit
	exit = func(code int) {
		if code != 0 {
			panic(fmt.Sprintf("exit-%d", code))
		}
	}
	defer func() { exit = oldExit }()
	defer func() {
		if r := recover(); r != nil {
			if s, ok := r.(string); ok && strings.HasPrefix(s, "exit-") {
				return
			}
			panic(r)
		}
	}()
	root.SetArgs(args)
	b := new(bytes.Buffer)
	root.SetOut(b)
	root.SetErr(b)
	root.SetIn(bytes.NewBufferString(""))
	err := root.Execute()
	return b.String(), err
}

// resetFlags resets all flags to their default values.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// setupTestEnv isolates HOME, the working directory and viper for one test.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))

	viper.Reset()
	oldSampler := samplerFactory
	samplerFactory = func(cfg config.Config) runner.Sampler { return stubSampler{} }

	t.Cleanup(func() {
		os.Chdir(wd)
		viper.Reset()
		samplerFactory = oldSampler
		rootCmd.SetArgs(nil)
	})
	return home
}

type stubSampler struct{}

func (stubSampler) Sample(ctx context.Context, pid int) (runner.Usage, bool) {
	return runner.Usage{CPUPercent: 1.5, MemoryMB: 12}, true
}

// webhookRecorder is a fake Discord endpoint.
type webhookRecorder struct {
	*httptest.Server
	mu       sync.Mutex
	payloads []map[string]string
	status   int
}

func newWebhookRecorder(t *testing.T) *webhookRecorder {
	t.Helper()
	rec := &webhookRecorder{status: http.StatusNoContent}
	rec.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]string
		json.NewDecoder(r.Body).Decode(&p)
		rec.mu.Lock()
		rec.payloads = append(rec.payloads, p)
		status := rec.status
		rec.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(rec.Close)
	return rec
}

func (r *webhookRecorder) received() []map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]string(nil), r.payloads...)
}

func (r *webhookRecorder) setStatus(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = code
}
