package engine

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ecmago/ecmago/internal/jobs"
)

// Options configures a Context. The zero value is a usable, permissive
// configuration (non-strict, unoptimized, untraced, default job
// executor), matching how the teacher's own node config structs are
// meant to zero-value into sane defaults rather than requiring every
// field be set.
type Options struct {
	// Strict is stored on the Context; parsing and compiling do not read
	// it, so setting it does not change how a Script or Module is
	// compiled.
	Strict bool

	// Optimize has no observable effect: this engine has one compiled
	// representation and no optimisation pass, and the flag is only
	// stored on the Context.
	Optimize bool

	// Trace, when set, makes the VM log every executed opcode to the
	// xlog logger at debug level (internal/xlog), the same
	// per-instruction tracing facility go-ethereum's own EVM exposes
	// via its Config.Debug/Tracer hook.
	Trace bool

	// JobExecutor backs Context.RunJobs/RunJobsAsync. nil selects
	// internal/jobs' own Queue implementation; a host embedding the
	// engine can supply its own (e.g. one that integrates with an
	// existing event loop) as long as it satisfies JobExecutor.
	JobExecutor JobExecutor
}

// JobExecutor is the minimal surface Context needs to schedule and
// drain deferred work. *jobs.Queue implements it directly; it is
// exported as an interface so a host can substitute its own event-loop
// integration (spec.md §4.9 calls this out as the one seam the
// job-queue's external integration — itself a non-goal — would plug
// into).
type JobExecutor interface {
	EnqueuePromiseJob(j jobs.Job)
	EnqueueJob(j jobs.Job)
	EnqueueTimeout(d time.Duration, j jobs.Job) *jobs.Timeout
	Pending() bool
	RunOnce() bool
	NextDeadline() (time.Time, bool)
}

// LoadOptionsFile decodes a TOML file into Options, the same
// config-file idiom the teacher's node command uses for its own
// settings (cmd/geth's gethConfig, decoded via the same library).
func LoadOptionsFile(path string) (Options, error) {
	var opts Options
	if _, err := toml.DecodeFile(path, &opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}
