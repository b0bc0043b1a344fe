// Package fleet runs commands against many remote hosts in parallel,
// reusing authenticated sessions through a shared connection cache.
package fleet

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// GatewayAdminRole is the special role name that targets the fleet's gateway
// hosts on their administrative port and user instead of the defaults.
const GatewayAdminRole = "gateway-admin"

// Resolver maps logical roles to reachable instance addresses.
type Resolver interface {
	Resolve(forceRefresh, validate bool) (map[string][]string, error)
}

// HostResult captures one host's outcome. A failed host never aborts the
// batch; the caller decides whether partial failure is acceptable.
type HostResult struct {
	Success bool
	Stdout  []string
	Stderr  []string
	Err     error
}

// Config carries the connection defaults for fleet runs.
type Config struct {
	User             string
	Port             int
	GatewayRole      string
	GatewayAdminUser string
	GatewayAdminPort int
	// Workers bounds the pool; zero means twice the local core count.
	Workers     int
	TaskTimeout time.Duration
}

// Executor dispatches a command across the fleet through a bounded worker
// pool, one task per (role, host) pair.
type Executor struct {
	Resolver Resolver
	Cache    *ConnCache
	Config   Config
	Log      zerolog.Logger
}

type task struct {
	role   string
	host   string
	target Target
}

// RunOnFleet runs command on every instance of every role, or of a single
// role when roleFilter is non-empty. Results are collected as tasks complete
// and regrouped into role → host → result; ordering across hosts is
// undefined.
func (e *Executor) RunOnFleet(command string, roleFilter string) (map[string]map[string]HostResult, error) {
	instances, err := e.Resolver.Resolve(false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fleet instances: %w", err)
	}

	tasks, err := e.buildTasks(instances, roleFilter)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()[:8]
	log := e.Log.With().Str("run_id", runID).Logger()
	log.Debug().Str("command", command).Int("hosts", len(tasks)).Msg("dispatching fleet command")

	workers := e.Config.Workers
	if workers <= 0 {
		workers = 2 * runtime.NumCPU()
	}

	type completion struct {
		role, host string
		result     HostResult
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	done := make(chan completion, len(tasks))

	for _, t := range tasks {
		wg.Add(1)
		go func(t task) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			result := e.runOne(t, command)
			if !result.Success {
				log.Debug().Str("host", t.host).Err(result.Err).Msg("host task failed")
			}
			done <- completion{role: t.role, host: t.host, result: result}
		}(t)
	}

	wg.Wait()
	close(done)

	results := make(map[string]map[string]HostResult)
	for c := range done {
		if results[c.role] == nil {
			results[c.role] = make(map[string]HostResult)
		}
		results[c.role][c.host] = c.result
	}
	return results, nil
}

func (e *Executor) buildTasks(instances map[string][]string, roleFilter string) ([]task, error) {
	if roleFilter == GatewayAdminRole {
		hosts, ok := instances[e.Config.GatewayRole]
		if !ok {
			return nil, fmt.Errorf("no instances resolved for gateway role %q", e.Config.GatewayRole)
		}
		tasks := make([]task, 0, len(hosts))
		for _, host := range hosts {
			tasks = append(tasks, task{
				role: GatewayAdminRole,
				host: host,
				target: Target{
					User: e.Config.GatewayAdminUser,
					Host: host,
					Port: e.Config.GatewayAdminPort,
				},
			})
		}
		return tasks, nil
	}

	var tasks []task
	for role, hosts := range instances {
		if roleFilter != "" && role != roleFilter {
			continue
		}
		for _, host := range hosts {
			tasks = append(tasks, task{
				role:   role,
				host:   host,
				target: Target{User: e.Config.User, Host: host, Port: e.Config.Port},
			})
		}
	}
	if roleFilter != "" && len(tasks) == 0 {
		return nil, fmt.Errorf("no instances resolved for role %q", roleFilter)
	}
	return tasks, nil
}

// runOne captures every failure into the host's own result slot. Only the
// task's goroutine is delayed by a slow host, bounded by the task timeout;
// nothing cancels sibling tasks.
func (e *Executor) runOne(t task, command string) HostResult {
	session, err := e.Cache.Get(t.target)
	if err != nil {
		return HostResult{Success: false, Err: err}
	}

	timeout := e.Config.TaskTimeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}

	type output struct {
		stdout, stderr []string
		err            error
	}
	finished := make(chan output, 1)
	go func() {
		stdout, stderr, err := session.Run(command)
		finished <- output{stdout: stdout, stderr: stderr, err: err}
	}()

	select {
	case out := <-finished:
		return HostResult{
			Success: out.err == nil,
			Stdout:  out.stdout,
			Stderr:  out.stderr,
			Err:     out.err,
		}
	case <-time.After(timeout):
		return HostResult{
			Success: false,
			Err:     fmt.Errorf("command timed out on %s after %s", t.target.Key(), timeout),
		}
	}
}
