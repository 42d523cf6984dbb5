// Package sfcli resolves Salesforce org credentials by shelling out to the
// Salesforce CLI (`sf`, or the legacy `sfdx`).
package sfcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/giantswarm/sf-fields/internal/logging"
	"github.com/giantswarm/sf-fields/internal/org"
)

// DefaultTimeout bounds a single CLI invocation.
const DefaultTimeout = 30 * time.Second

// CredentialSource yields credentials for one pipeline run.
type CredentialSource interface {
	Resolve(ctx context.Context) (org.Credentials, error)
}

// runCommand executes the CLI and returns its stdout and stderr.
// It is a package-level variable so tests can replace it with a fake.
var runCommand = func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Config configures a Resolver
type Config struct {
	// Binary is the CLI executable (default: sf). A binary named sfdx uses the
	// legacy force:org:display command line.
	Binary string

	// TargetOrg is an org alias or username; empty uses the CLI's default org.
	TargetOrg string

	// Timeout bounds the CLI process (default: 30s).
	Timeout time.Duration

	Logger *logging.Logger
}

// Resolver is a CredentialSource backed by the Salesforce CLI.
type Resolver struct {
	binary    string
	targetOrg string
	timeout   time.Duration
	logger    *logging.Logger
}

// NewResolver creates a resolver from cfg
func NewResolver(cfg Config) *Resolver {
	if cfg.Binary == "" {
		cfg.Binary = "sf"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Resolver{
		binary:    cfg.Binary,
		targetOrg: cfg.TargetOrg,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
	}
}

// Args returns the command line arguments passed to the CLI binary.
func (r *Resolver) Args() []string {
	if isLegacy(r.binary) {
		args := []string{"force:org:display", "--json"}
		if r.targetOrg != "" {
			args = append(args, "--targetusername", r.targetOrg)
		}
		return args
	}
	args := []string{"org", "display", "--json"}
	if r.targetOrg != "" {
		args = append(args, "--target-org", r.targetOrg)
	}
	return args
}

// Resolve runs the CLI once and extracts the instance URL and access token.
func (r *Resolver) Resolve(ctx context.Context) (org.Credentials, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := r.Args()
	r.logger.Debug("Running %s %s", r.binary, strings.Join(args, " "))

	stdout, stderr, err := runCommand(ctx, r.binary, args...)
	if err != nil {
		return org.Credentials{}, r.execError(ctx, err, stdout, stderr)
	}

	creds, err := ParseDisplayOutput(stdout)
	if err != nil {
		return org.Credentials{}, err
	}

	r.logger.InfoVerbose("Resolved org %s (token %s)", creds.InstanceURL, creds.MaskedToken())
	return creds, nil
}

// execError converts a failed CLI run into an AuthResolutionError. The CLI
// prints a JSON failure payload on stdout even when exiting nonzero, so its
// message is preferred over raw stderr.
func (r *Resolver) execError(ctx context.Context, err error, stdout, stderr []byte) error {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return &AuthResolutionError{
			Reason:     ReasonExec,
			Diagnostic: fmt.Sprintf("'%s' CLI is not installed or not in PATH", r.binary),
			Err:        err,
		}
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &AuthResolutionError{
			Reason:     ReasonExec,
			Diagnostic: fmt.Sprintf("'%s' did not finish within %s", r.binary, r.timeout),
			Err:        ctx.Err(),
		}
	}

	diagnostic := strings.TrimSpace(string(stderr))
	if gjson.ValidBytes(stdout) {
		if msg := gjson.GetBytes(stdout, "message").String(); msg != "" {
			diagnostic = msg
		}
	}
	if diagnostic == "" {
		diagnostic = err.Error()
	}
	return &AuthResolutionError{Reason: ReasonExec, Diagnostic: diagnostic, Err: err}
}

// ParseDisplayOutput extracts credentials from `org display --json` output.
// Only presence of the instance URL and access token is checked; the rest of
// the payload is passed through unvalidated.
func ParseDisplayOutput(out []byte) (org.Credentials, error) {
	if !gjson.ValidBytes(out) {
		return org.Credentials{}, &AuthResolutionError{
			Reason:     ReasonParse,
			Diagnostic: truncate(strings.TrimSpace(string(out)), 200),
		}
	}

	payload := gjson.ParseBytes(out)
	if status := payload.Get("status"); status.Exists() && status.Int() != 0 {
		return org.Credentials{}, &AuthResolutionError{
			Reason:     ReasonStatus,
			Diagnostic: payload.Get("message").String(),
		}
	}

	result := payload.Get("result")
	creds := org.Credentials{
		InstanceURL: strings.TrimSpace(result.Get("instanceUrl").String()),
		AccessToken: strings.TrimSpace(result.Get("accessToken").String()),
		Username:    result.Get("username").String(),
		APIVersion:  result.Get("apiVersion").String(),
	}

	var missing []string
	if creds.InstanceURL == "" {
		missing = append(missing, "result.instanceUrl")
	}
	if creds.AccessToken == "" {
		missing = append(missing, "result.accessToken")
	}
	if len(missing) > 0 {
		return org.Credentials{}, &AuthResolutionError{
			Reason:     ReasonMissingField,
			Diagnostic: "missing " + strings.Join(missing, ", "),
		}
	}

	return creds, nil
}

func isLegacy(binary string) bool {
	base := strings.TrimSuffix(filepath.Base(binary), filepath.Ext(binary))
	return base == "sfdx"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
