package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

const defaultTimeoutMS = 5_000

// endpoint is one resolved dial destination.
type endpoint struct {
	Name string
	Addr string
	Auth string
}

// targetsFile persists named server endpoints for the CLI.
type targetsFile struct {
	DefaultTarget string         `toml:"default_target"`
	TimeoutMS     int64          `toml:"timeout_ms"`
	Targets       []targetConfig `toml:"targets"`
}

// targetConfig binds a display name to one server endpoint.
type targetConfig struct {
	Name string `toml:"name"`
	Addr string `toml:"addr"`
	Auth string `toml:"auth"`
}

// cliOptions mirrors the command line after flag parsing.
type cliOptions struct {
	Addr            string
	Auth            string
	TargetsPath     string
	Target          string
	TimeoutMS       int64
	TimeoutExplicit bool
	CAFile          string
}

// session carries everything needed to dial one server.
type session struct {
	Endpoint  endpoint
	TimeoutMS int64
	CAFile    string
}

// resolveSession merges flags with the optional targets file. An explicit
// -addr wins outright; otherwise the named (or default) target from the
// file is used. Flag auth and an explicit flag timeout override file
// values.
func resolveSession(opts cliOptions) (session, error) {
	s := session{TimeoutMS: opts.TimeoutMS, CAFile: strings.TrimSpace(opts.CAFile)}
	if s.TimeoutMS <= 0 {
		s.TimeoutMS = defaultTimeoutMS
	}

	if addr := strings.TrimSpace(opts.Addr); addr != "" {
		s.Endpoint = endpoint{Name: addr, Addr: addr, Auth: opts.Auth}
		return s, nil
	}

	path := strings.TrimSpace(opts.TargetsPath)
	if path == "" {
		return session{}, fmt.Errorf("either -addr or -targets is required")
	}

	var file targetsFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return session{}, fmt.Errorf("load targets: %w", err)
	}
	if meta.IsDefined("timeout_ms") && !opts.TimeoutExplicit && file.TimeoutMS > 0 {
		s.TimeoutMS = file.TimeoutMS
	}

	name := strings.TrimSpace(opts.Target)
	if name == "" {
		name = strings.TrimSpace(file.DefaultTarget)
	}
	ep, err := selectTarget(normalizeTargets(file.Targets), name)
	if err != nil {
		return session{}, err
	}
	if strings.TrimSpace(opts.Auth) != "" {
		ep.Auth = opts.Auth
	}
	s.Endpoint = ep
	return s, nil
}

// normalizeTargets trims fields and drops entries with no address. A
// nameless entry is addressable by its addr.
func normalizeTargets(entries []targetConfig) []endpoint {
	eps := make([]endpoint, 0, len(entries))
	for _, entry := range entries {
		addr := strings.TrimSpace(entry.Addr)
		if addr == "" {
			continue
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = addr
		}
		eps = append(eps, endpoint{Name: name, Addr: addr, Auth: entry.Auth})
	}
	return eps
}

// selectTarget picks the named endpoint, or the first one when no name is
// given.
func selectTarget(eps []endpoint, name string) (endpoint, error) {
	if len(eps) == 0 {
		return endpoint{}, fmt.Errorf("targets file has no usable entries")
	}
	if strings.TrimSpace(name) == "" {
		return eps[0], nil
	}
	for _, ep := range eps {
		if strings.EqualFold(ep.Name, strings.TrimSpace(name)) {
			return ep, nil
		}
	}
	names := make([]string, 0, len(eps))
	for _, ep := range eps {
		names = append(names, ep.Name)
	}
	sort.Strings(names)
	return endpoint{}, fmt.Errorf("unknown target %q (have: %s)", name, strings.Join(names, ", "))
}
