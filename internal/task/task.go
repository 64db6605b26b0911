// Package task turns configured job definitions into schedule functions.
package task

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/flemzord/every/internal/config"
	"github.com/flemzord/every/internal/schedule"
	"github.com/kballard/go-shellquote"
)

// maxOutput caps the command output and response body kept as a run result.
const maxOutput = 4096

// ErrNoAction is returned for a job with neither a command nor an HTTP check.
var ErrNoAction = errors.New("task: job has no command or http check")

// FromConfig builds the schedule function for jc. A positive jc.Timeout
// bounds each run.
func FromConfig(jc config.JobConfig, client *http.Client) (schedule.Func, error) {
	var fn schedule.Func
	switch {
	case jc.Command != "":
		args, err := shellquote.Split(jc.Command)
		if err != nil {
			return nil, fmt.Errorf("task: %s: parse command: %w", jc.Name, err)
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("task: %s: empty command", jc.Name)
		}
		fn = Command(args[0], args[1:]...)
	case jc.HTTP != nil:
		fn = HTTPCheck(client, *jc.HTTP)
	default:
		return nil, fmt.Errorf("task: %s: %w", jc.Name, ErrNoAction)
	}
	return WithTimeout(fn, jc.Timeout), nil
}

// WithTimeout bounds every call of fn by d. A non-positive d returns fn
// unchanged.
func WithTimeout(fn schedule.Func, d time.Duration) schedule.Func {
	if d <= 0 {
		return fn
	}
	return func(ctx context.Context) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return fn(ctx)
	}
}

// Command runs name with args, without a shell. The result is the
// trimmed combined output; a non-zero exit is an error carrying it.
func Command(name string, args ...string) schedule.Func {
	return func(ctx context.Context) (any, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out

		err := cmd.Run()
		output := truncate(strings.TrimSpace(out.String()))
		if err != nil {
			if output != "" {
				return output, fmt.Errorf("task: %s: %w: %s", name, err, output)
			}
			return nil, fmt.Errorf("task: %s: %w", name, err)
		}
		return output, nil
	}
}

// HTTPCheck sends the configured request. The result is the response
// status code; an unexpected status is an error.
func HTTPCheck(client *http.Client, check config.HTTPCheck) schedule.Func {
	if client == nil {
		client = http.DefaultClient
	}
	method := check.Method
	if method == "" {
		method = http.MethodGet
	}
	return func(ctx context.Context) (any, error) {
		req, err := http.NewRequestWithContext(ctx, method, check.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("task: build request: %w", err)
		}
		req.Header.Set("User-Agent", "every")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("task: %s %s: %w", method, check.URL, err)
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxOutput))

		if !statusOK(resp.StatusCode, check.ExpectStatus) {
			return resp.StatusCode, fmt.Errorf("task: %s %s: unexpected status %d", method, check.URL, resp.StatusCode)
		}
		return resp.StatusCode, nil
	}
}

func statusOK(got, want int) bool {
	if want != 0 {
		return got == want
	}
	return got >= 200 && got < 300
}

func truncate(s string) string {
	if len(s) <= maxOutput {
		return s
	}
	cut := maxOutput
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
