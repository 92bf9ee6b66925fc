package policy

import (
	"bytes"
	"context"

	_ "embed"

	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage"
	"github.com/open-policy-agent/opa/storage/inmem"

	"github.com/mirror520/taskboard/workspace"
)

// Policy answers workspace-scope questions (renaming, membership,
// services). Task-level decisions belong to the access package.
type Policy interface {
	Eval(ctx context.Context, input any) (bool, error)
	Allowed(ctx context.Context, role workspace.Role, domain string, action string) (bool, error)
}

//go:embed rbac.rego
var module string

//go:embed data.json
var data []byte

type regoPolicy struct {
	query *rego.PreparedEvalQuery
	store storage.Store
}

func NewRegoPolicy(ctx context.Context) (Policy, error) {
	store := inmem.NewFromReader(bytes.NewReader(data))

	query, err := rego.New(
		rego.Module("rbac.rego", module),
		rego.Query("data.taskboard.rbac.allow"),
		rego.Store(store),
	).PrepareForEval(ctx)

	if err != nil {
		return nil, err
	}

	return &regoPolicy{
		&query,
		store,
	}, nil
}

func (policy *regoPolicy) Eval(ctx context.Context, input any) (bool, error) {
	results, err := policy.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, err
	}

	return results.Allowed(), nil
}

func (policy *regoPolicy) Allowed(ctx context.Context, role workspace.Role, domain string, action string) (bool, error) {
	input := map[string]any{
		"domain": domain,
		"action": action,
		"role":   string(role),
	}

	return policy.Eval(ctx, input)
}
