// Package pipeline composes credential resolution, metadata retrieval,
// selection and presentation into a single run.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/giantswarm/sf-fields/internal/logging"
	"github.com/giantswarm/sf-fields/internal/org"
	"github.com/giantswarm/sf-fields/internal/picker"
	"github.com/giantswarm/sf-fields/internal/report"
	"github.com/giantswarm/sf-fields/internal/sfcli"
	"github.com/giantswarm/sf-fields/internal/sforce"
)

// Placeholder is the prompt shown to the user when choosing objects.
var Placeholder = fmt.Sprintf("Select up to %d Salesforce Objects", org.MaxSelection)

// SelectionPolicyError reports a selection outside the allowed size.
type SelectionPolicyError struct {
	Count int
}

func (e *SelectionPolicyError) Error() string {
	return fmt.Sprintf("please select between %d and %d objects", org.MinSelection, org.MaxSelection)
}

// ValidateSelection enforces the selection bound.
func ValidateSelection(names []string) error {
	if len(names) < org.MinSelection || len(names) > org.MaxSelection {
		return &SelectionPolicyError{Count: len(names)}
	}
	return nil
}

// Runner wires the pipeline stages together. It holds no per-run state and
// may be reused.
type Runner struct {
	Credentials sfcli.CredentialSource
	Metadata    sforce.MetadataSource
	Picker      picker.Picker
	Surface     report.Surface
	Format      string
	Logger      *logging.Logger
}

// Run executes one interactive pass. A cancelled prompt returns
// picker.ErrCancelled without describing or displaying anything.
func (r *Runner) Run(ctx context.Context) error {
	creds, err := r.resolve(ctx)
	if err != nil {
		return err
	}

	objects, err := r.Metadata.ListObjects(ctx, creds)
	if err != nil {
		return err
	}
	r.Logger.Success("Found %d objects", len(objects))

	selected, err := r.Picker.Pick(ctx, org.ObjectNames(objects), Placeholder)
	if err != nil {
		if errors.Is(err, picker.ErrCancelled) {
			return picker.ErrCancelled
		}
		return fmt.Errorf("selection failed: %w", err)
	}
	if err := ValidateSelection(selected); err != nil {
		return err
	}

	sets, err := r.describe(ctx, creds, selected)
	if err != nil {
		return err
	}

	doc, err := report.Render(r.Format, sets)
	if err != nil {
		return err
	}
	return r.Surface.Show(ctx, report.Title, doc)
}

// ListObjects resolves fresh credentials and returns the org's objects.
func (r *Runner) ListObjects(ctx context.Context) ([]org.ObjectDescriptor, error) {
	creds, err := r.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return r.Metadata.ListObjects(ctx, creds)
}

// DescribeObjects validates names against the selection bound, resolves fresh
// credentials and describes each object in order.
func (r *Runner) DescribeObjects(ctx context.Context, names []string) ([]org.ObjectFieldSet, error) {
	if err := ValidateSelection(names); err != nil {
		return nil, err
	}
	creds, err := r.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return r.describe(ctx, creds, names)
}

func (r *Runner) resolve(ctx context.Context) (org.Credentials, error) {
	r.Logger.Info("Resolving org credentials...")
	creds, err := r.Credentials.Resolve(ctx)
	if err != nil {
		return org.Credentials{}, err
	}
	r.Logger.Success("Authenticated to %s", creds.InstanceURL)
	r.Logger.InfoVerbose("Access token: %s", creds.MaskedToken())
	return creds, nil
}

// describe fetches objects one at a time; the first failure stops the rest.
func (r *Runner) describe(ctx context.Context, creds org.Credentials, names []string) ([]org.ObjectFieldSet, error) {
	sets := make([]org.ObjectFieldSet, 0, len(names))
	for _, name := range names {
		r.Logger.Info("Describing %s...", name)
		fields, err := r.Metadata.DescribeFields(ctx, creds, name)
		if err != nil {
			return nil, err
		}
		r.Logger.InfoVerbose("%s has %d fields", name, len(fields))
		sets = append(sets, org.ObjectFieldSet{ObjectName: name, Fields: fields})
	}
	return sets, nil
}
