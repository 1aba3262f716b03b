package firestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/utils/logging"
)

// IndexConfig returns the fireconf declaration of the vector index backing
// indexName when stored with the given collection prefix.
func IndexConfig(prefix, indexName string, dimension int) *fireconf.Config {
	v := &vectorIndex{f: &Firestore{collectionPrefix: prefix}}
	return v.indexConfig(indexName, dimension)
}

// PlanStep is one pending index migration
type PlanStep struct {
	Collection  string
	Operation   string
	Description string
	Destructive bool
}

func newFireconfClient(ctx context.Context, projectID, databaseID string, cfg *fireconf.Config) (*fireconf.Client, func(), error) {
	client, err := fireconf.New(ctx, projectID, databaseID, cfg, fireconf.WithLogger(logging.From(ctx)))
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create fireconf client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID))
	}
	closer := func() {
		if err := client.Close(); err != nil {
			logging.From(ctx).Error("failed to close fireconf client", "error", err.Error())
		}
	}
	return client, closer, nil
}

// PlanIndex returns the pending fireconf migration steps for cfg without
// applying them. Only the collections named by cfg are imported.
func PlanIndex(ctx context.Context, projectID, databaseID string, cfg *fireconf.Config) ([]PlanStep, error) {
	client, closer, err := newFireconfClient(ctx, projectID, databaseID, cfg)
	if err != nil {
		return nil, err
	}
	defer closer()

	names := make([]string, 0, len(cfg.Collections))
	for _, c := range cfg.Collections {
		names = append(names, c.Name)
	}

	current, err := client.Import(ctx, names...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to import current index configuration", goerr.V("collections", names))
	}

	diff, err := client.DiffConfigs(current)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to diff index configuration")
	}
	return planSteps(diff), nil
}

func planSteps(diff *fireconf.DiffResult) []PlanStep {
	var steps []PlanStep
	if diff == nil {
		return steps
	}

	for _, c := range diff.Collections {
		for _, idx := range c.IndexesToAdd {
			steps = append(steps, PlanStep{
				Collection:  c.Name,
				Operation:   string(fireconf.ActionAdd),
				Description: "create index " + describeIndex(idx),
			})
		}
		for _, idx := range c.IndexesToDelete {
			steps = append(steps, PlanStep{
				Collection:  c.Name,
				Operation:   string(fireconf.ActionDelete),
				Description: "delete index " + describeIndex(idx),
				Destructive: true,
			})
		}
		if c.TTLAction != "" {
			desc := "remove TTL policy"
			if c.TTL != nil {
				desc = "set TTL policy on " + c.TTL.Field
			}
			steps = append(steps, PlanStep{
				Collection:  c.Name,
				Operation:   string(c.TTLAction),
				Description: desc,
				Destructive: c.TTLAction == fireconf.ActionDelete,
			})
		}
	}
	return steps
}

func describeIndex(idx fireconf.Index) string {
	fields := make([]string, 0, len(idx.Fields))
	for _, f := range idx.Fields {
		switch {
		case f.Vector != nil:
			fields = append(fields, fmt.Sprintf("%s (vector %d)", f.Path, f.Vector.Dimension))
		case f.Array != "":
			fields = append(fields, fmt.Sprintf("%s (%s)", f.Path, f.Array))
		default:
			fields = append(fields, fmt.Sprintf("%s (%s)", f.Path, f.Order))
		}
	}
	return "[" + strings.Join(fields, ", ") + "]"
}

// MigrateIndex applies cfg
func MigrateIndex(ctx context.Context, projectID, databaseID string, cfg *fireconf.Config) error {
	client, closer, err := newFireconfClient(ctx, projectID, databaseID, cfg)
	if err != nil {
		return err
	}
	defer closer()

	if err := client.Migrate(ctx); err != nil {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	return nil
}
