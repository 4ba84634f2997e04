// Package sandbox runs jexpr.wasm (the cmd/wasi build of this module) as
// an isolated wasip1 guest via wazero, so a query can be evaluated against
// untrusted input without sharing the host process's memory or having
// access to anything beyond stdin/stdout. This mirrors the wazero-based
// in-process harness the comparison benchmarks use to drive the wasip1
// build, but packaged for callers rather than test code.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	wazeroSys "github.com/tetratelabs/wazero/sys"
)

// Sandbox hosts one AOT-compiled jexpr.wasm module and runs queries
// against it. Create with New, reuse across many Eval calls, Close when
// done.
type Sandbox struct {
	rt       wazero.Runtime
	compiled wazero.CompiledModule
}

type request struct {
	Query string      `json:"query"`
	Data  interface{} `json:"data"`
}

type response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// New compiles wasmBinary (the bytes of a wasip1 build of cmd/wasi) and
// readies a wazero runtime with the WASI preview1 host imports it needs.
func New(ctx context.Context, wasmBinary []byte) (*Sandbox, error) {
	rt := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("sandbox: instantiate wasi_snapshot_preview1: %w", err)
	}
	compiled, err := rt.CompileModule(ctx, wasmBinary)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("sandbox: compile module: %w", err)
	}
	return &Sandbox{rt: rt, compiled: compiled}, nil
}

// Close releases the wazero runtime and every resource it holds.
func (s *Sandbox) Close(ctx context.Context) error {
	return s.rt.Close(ctx)
}

// Eval runs query against data in a fresh, anonymous module instance
// (one per call, so concurrent Eval calls never share guest state) and
// returns the decoded result.
func (s *Sandbox) Eval(ctx context.Context, query string, data interface{}) (interface{}, error) {
	payload, err := json.Marshal(request{Query: query, Data: data})
	if err != nil {
		return nil, fmt.Errorf("sandbox: marshal request: %w", err)
	}

	var stdout bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithStdin(bytes.NewReader(payload)).
		WithStdout(&stdout).
		WithArgs("jexpr").
		WithName("") // anonymous: safe for concurrent instantiation

	_, runErr := s.rt.InstantiateModule(ctx, s.compiled, cfg)
	if runErr != nil {
		var exitErr *wazeroSys.ExitError
		if !errors.As(runErr, &exitErr) || exitErr.ExitCode() != 0 {
			// The guest may still have written a well-formed error envelope
			// before a non-zero exit; fall through to decode stdout first.
			if stdout.Len() == 0 {
				return nil, fmt.Errorf("sandbox: instantiate module: %w", runErr)
			}
		}
	}

	var env response
	if err := json.Unmarshal(stdout.Bytes(), &env); err != nil {
		return nil, fmt.Errorf("sandbox: decode guest response: %w (raw: %s)", err, stdout.String())
	}
	if env.Error != "" {
		return nil, errors.New(env.Error)
	}
	if len(env.Result) == 0 {
		return nil, nil
	}
	var result interface{}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, fmt.Errorf("sandbox: decode result: %w", err)
	}
	return result, nil
}
