package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/roach88/provkit/internal/canonical"
	"github.com/roach88/provkit/internal/prov"
	"github.com/roach88/provkit/internal/provrdf"
	"github.com/roach88/provkit/internal/store"
	"github.com/roach88/provkit/internal/testutil"
)

// storedAt is the created_at stamp of documents the harness stores.
var storedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness is the scenario execution engine. Each run gets a fresh
// in-memory store with a deterministic clock and ID generator.
type Harness struct {
	store  *store.Store
	clock  *testutil.DeterministicClock
	ids    *testutil.FixedIDGenerator
	logger *slog.Logger
}

// Run executes a scenario with logging discarded.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(context.Background(), scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger executes a scenario and returns the result. The error is
// reserved for infrastructure failures (unreadable input, store errors);
// failed round trips and assertions are reported in the Result.
func RunWithLogger(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	clock := testutil.NewDeterministicClock()
	ids := testutil.NewFixedIDGenerator()

	st, err := store.Open(":memory:",
		store.WithClock(clock),
		store.WithIDGenerator(ids),
		store.WithNow(func() time.Time { return storedAt }),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  clock,
		ids:    ids,
		logger: logger,
	}
	return h.run(ctx, scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()

	data, err := h.readInput(scenario)
	if err != nil {
		return nil, err
	}
	format, err := scenario.inputFormat()
	if err != nil {
		return nil, err
	}

	decoded, err := provrdf.Unmarshal(data, format, provrdf.DecodeOptions{
		Strict:     scenario.Strict,
		Namespaces: scenario.Namespaces,
		Logger:     h.logger,
	})
	if err != nil {
		result.DecodeError = err.Error()
		h.logger.Info("decode failed", "scenario", scenario.Name, "error", err)
	} else {
		result.Diagnostics = decoded.Diagnostics
		doc, err := transform(decoded.Document, scenario.Transform)
		if err != nil {
			result.AddError(fmt.Sprintf("%s: %v", scenario.Transform, err))
		} else {
			result.Document = doc
			h.roundTrips(ctx, scenario, result)
			if result.Hash, err = canonical.DocumentHash(doc); err != nil {
				return nil, fmt.Errorf("hash document: %w", err)
			}
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	if result.DecodeError != "" && !expectsDecodeError(scenario) {
		result.AddError("unexpected decode error: " + result.DecodeError)
	}
	return result, nil
}

func (h *Harness) readInput(scenario *Scenario) ([]byte, error) {
	if scenario.Input.Data != "" {
		return []byte(scenario.Input.Data), nil
	}
	data, err := os.ReadFile(scenario.inputPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

func transform(doc *prov.Document, name string) (*prov.Document, error) {
	switch name {
	case TransformUnified:
		return doc.Unified()
	case TransformFlattened:
		return doc.Flattened()
	}
	return doc, nil
}

// roundTrips pushes the result document through every requested format
// and records a failure for each one that does not come back equal.
func (h *Harness) roundTrips(ctx context.Context, scenario *Scenario, result *Result) {
	for _, name := range scenario.RoundTrip {
		var (
			back *prov.Document
			err  error
		)
		if name == RoundTripStore {
			back, err = h.throughStore(ctx, scenario.Name, result.Document)
		} else {
			back, err = throughFormat(result.Document, name)
		}
		if err != nil {
			result.AddError(fmt.Sprintf("roundtrip %s: %v", name, err))
			continue
		}
		if !result.Document.Equal(back) {
			result.AddError(fmt.Sprintf("roundtrip %s: document changed\nbefore:\n%s\nafter:\n%s",
				name, result.Document, back))
			continue
		}
		h.logger.Debug("roundtrip ok", "scenario", scenario.Name, "format", name)
	}
}

func throughFormat(doc *prov.Document, name string) (*prov.Document, error) {
	f, err := provrdf.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := provrdf.Serialize(&buf, doc, f); err != nil {
		return nil, err
	}
	res, err := provrdf.Deserialize(&buf, f, provrdf.DecodeOptions{
		Namespaces: provrdf.Prefixes(doc),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return nil, err
	}
	return res.Document, nil
}

func (h *Harness) throughStore(ctx context.Context, name string, doc *prov.Document) (*prov.Document, error) {
	info, _, err := h.store.Put(ctx, name, doc)
	if err != nil {
		return nil, err
	}
	stored, err := h.store.Get(ctx, info.ID)
	if err != nil {
		return nil, err
	}
	return stored.Document, nil
}

func expectsDecodeError(scenario *Scenario) bool {
	for _, a := range scenario.Assertions {
		if a.Type == AssertDecodeError {
			return true
		}
	}
	return false
}
