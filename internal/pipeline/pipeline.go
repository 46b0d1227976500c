package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datasight/datasight-cli/internal/ai"
	"github.com/datasight/datasight-cli/internal/dataset"
	"github.com/datasight/datasight-cli/internal/insight"
	"github.com/datasight/datasight-cli/internal/profile"
	"github.com/datasight/datasight-cli/internal/prompt"
	"github.com/datasight/datasight-cli/internal/redact"
	"github.com/datasight/datasight-cli/internal/store"
	"github.com/datasight/datasight-cli/internal/utils"
)

// Mode selects the inference variant.
type Mode string

const (
	ModeLive   Mode = "live"
	ModeDryRun Mode = "dry-run"
)

// Request is one pipeline invocation, immutable once constructed. The
// dataset is owned by the caller and never mutated here.
type Request struct {
	Dataset  *dataset.Dataset
	Question string
	Model    string
	Mode     Mode
}

// State is a step of the validation loop. The only backward transition is
// Validating -> Drafting, bounded by Runner.MaxCorrections.
type State int

const (
	StateDrafting State = iota
	StateAwaitingResponse
	StateValidating
	StateAccepted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDrafting:
		return "drafting"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateValidating:
		return "validating"
	case StateAccepted:
		return "accepted"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome describes an accepted run.
type Outcome struct {
	RunID            string
	Result           *insight.Result
	Paths            []string
	Profile          *profile.DatasetProfile
	EstimatedTokens  int
	EstimatedCostUSD float64
	Corrections      int
}

// Runner wires the stages together: profile -> redact -> prompt -> infer ->
// validate -> persist. Every invocation, success or failure, appends exactly
// one run-log entry; no result file is ever written for a failed run.
type Runner struct {
	ProfileOpts profile.Options
	Redaction   redact.Policy
	Store       *store.Store
	Logger      *zap.Logger

	// Runtime overrides the backend. Left nil in dry-run mode, the runner
	// builds the offline substitute itself; live mode requires one.
	Runtime ai.Runtime

	// MaxCorrections bounds Validating -> Drafting transitions after an
	// invalid model reply. Zero means no corrective retry.
	MaxCorrections int
	MaxTokens      int
	Temperature    float64

	now func() time.Time
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now().UTC()
}

// Run executes the pipeline once. On any failure it returns the error after
// logging; it never leaves a partial result file behind.
func (r *Runner) Run(ctx context.Context, req Request) (*Outcome, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.NewString()
	entry := store.RunLogEntry{
		Timestamp: r.clock().Format(time.RFC3339),
		RunID:     runID,
		Input:     req.Dataset.Name,
		Question:  req.Question,
		Model:     req.Model,
	}

	outcome, err := r.run(ctx, req, runID, &entry, logger)
	if err != nil {
		entry.Success = false
		entry.Error = summarize(err)
		logger.Warn("run failed", zap.String("run_id", runID), zap.String("error", entry.Error))
	} else {
		entry.Success = true
	}
	if logErr := r.Store.AppendLog(entry); logErr != nil {
		logger.Error("append run log", zap.Error(logErr))
		if err == nil {
			err = logErr
		}
	}
	return outcome, err
}

func (r *Runner) run(ctx context.Context, req Request, runID string, entry *store.RunLogEntry, logger *zap.Logger) (*Outcome, error) {
	prof, err := profile.New(req.Dataset, r.ProfileOpts)
	if err != nil {
		return nil, err
	}
	entry.RowCount = prof.RowCount
	entry.ColumnCount = prof.ColumnCount

	redacted := redact.Apply(prof, r.Redaction)
	logger.Debug("profiled dataset",
		zap.Int("rows", prof.RowCount),
		zap.Int("columns", prof.ColumnCount),
		zap.Strings("reductions", prof.Reductions))

	runtime := r.Runtime
	if runtime == nil {
		if req.Mode != ModeDryRun {
			return nil, errors.New("no inference runtime configured for live mode")
		}
		runtime = ai.NewDryRunRuntime(redacted)
	}

	text := r.fitContext(req.Model, prompt.Build(redacted, req.Question))
	entry.EstimatedTokens = utils.CountTokens(text)
	if cost, ok := ai.EstimateCostUSD(req.Model, entry.EstimatedTokens, r.MaxTokens); ok {
		entry.EstimatedCostUSD = cost
	}

	state := StateDrafting
	corrections := 0
	var raw string
	var result *insight.Result
	var lastErr error
	for {
		switch state {
		case StateDrafting:
			state = StateAwaitingResponse

		case StateAwaitingResponse:
			resp, err := runtime.Generate(ctx, ai.GenerateRequest{
				Model:       req.Model,
				Messages:    []ai.Message{{Role: "user", Content: text}},
				MaxTokens:   r.MaxTokens,
				Temperature: r.Temperature,
			})
			if err != nil {
				lastErr = err
				state = StateFailed
				continue
			}
			raw = resp.Text()
			state = StateValidating

		case StateValidating:
			res, verr := insight.Validate(raw, redacted)
			if verr != nil {
				if corrections < r.MaxCorrections {
					corrections++
					logger.Debug("response rejected, retrying with correction",
						zap.Int("correction", corrections), zap.String("reason", verr.Error()))
					text = r.fitContext(req.Model, text+prompt.Correction(verr.Error()))
					state = StateDrafting
					continue
				}
				lastErr = verr
				state = StateFailed
				continue
			}
			result = res
			state = StateAccepted

		case StateAccepted:
			paths, serr := r.Store.Save(result, runID)
			if serr != nil {
				lastErr = serr
				state = StateFailed
				continue
			}
			return &Outcome{
				RunID:            runID,
				Result:           result,
				Paths:            paths,
				Profile:          redacted,
				EstimatedTokens:  entry.EstimatedTokens,
				EstimatedCostUSD: entry.EstimatedCostUSD,
				Corrections:      corrections,
			}, nil

		case StateFailed:
			return nil, lastErr
		}
	}
}

// fitContext trims the prompt to the model's context window, reserving room
// for the completion. Unknown models pass through untrimmed.
func (r *Runner) fitContext(model, text string) string {
	mi, ok := ai.LookupModel(model)
	if !ok || mi.ContextTokens <= 0 {
		return text
	}
	budget := mi.ContextTokens - r.MaxTokens
	if budget <= 0 {
		return text
	}
	return utils.TruncateToTokenLimit(text, budget)
}

// summarize turns a pipeline failure into the error kind plus a short cause,
// suitable for user-facing output and the run log. Never a stack trace.
func summarize(err error) string {
	var pe *profile.ProfilingError
	if errors.As(err, &pe) {
		return "ProfilingError: " + pe.Reason
	}
	var ie *ai.InferenceError
	if errors.As(err, &ie) {
		return "InferenceError: " + ie.Error()
	}
	var me *insight.MalformedJSONError
	if errors.As(err, &me) {
		return "MalformedJSON: " + me.Error()
	}
	var se *insight.SchemaViolationError
	if errors.As(err, &se) {
		return "SchemaViolation: " + se.Error()
	}
	return fmt.Sprintf("error: %v", err)
}
