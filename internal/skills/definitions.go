package skills

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	agenterrors "copilot/internal/errors"
	"copilot/internal/external"
)

type definitionsFile struct {
	Skills []definition `yaml:"skills"`
}

type definition struct {
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	Service       string `yaml:"service"`
	Type          string `yaml:"type"`
	Configuration string `yaml:"configuration"`
	Version       string `yaml:"version"`
	// Active defaults to true when omitted.
	Active *bool `yaml:"active"`
}

// LoadFile reads skill definitions from a YAML document.
func LoadFile(path string) ([]*Skill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skill definitions: %w", err)
	}

	var file definitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, agenterrors.Wrap(agenterrors.KindInvalidArgument, err, "parse skill definitions %s", path)
	}

	out := make([]*Skill, 0, len(file.Skills))
	for i, def := range file.Skills {
		skill, err := New(def.Name, def.Description, def.Service, def.Type, def.Configuration)
		if err != nil {
			return nil, agenterrors.Wrap(agenterrors.KindInvalidArgument, err, "skill definition %d in %s", i, path)
		}
		skill.Version = def.Version
		if def.Active != nil {
			skill.Active = *def.Active
		}
		out = append(out, skill)
	}
	return out, nil
}

// Populate registers each skill, skipping names that are already present so
// file definitions can layer over the defaults.
func Populate(ctx context.Context, registry Registry, defs []*Skill) error {
	for _, skill := range defs {
		err := registry.Add(ctx, skill)
		if agenterrors.Is(err, agenterrors.KindConflict) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Defaults returns the built-in skill set, one per downstream operation.
func Defaults() []*Skill {
	specs := []struct {
		name, description, service, skillType string
	}{
		{"GetLeaveBalance", "Look up an employee's remaining leave balance", external.ServiceHR, TypeQuery},
		{"GetEmployeeInfo", "Retrieve employee profile details", external.ServiceHR, TypeQuery},
		{"CreateEmployee", "Create a new employee record", external.ServiceHR, TypeAction},
		{"GetOrganizationChart", "Retrieve the organization structure", external.ServiceHR, TypeQuery},
		{"GetStock", "Check current stock levels for a product", external.ServiceInventory, TypeQuery},
		{"UpdateStock", "Adjust stock levels for a product", external.ServiceInventory, TypeAction},
		{"GetProducts", "List products in the catalog", external.ServiceInventory, TypeQuery},
		{"GetLowStock", "List products below their reorder threshold", external.ServiceInventory, TypeQuery},
		{"GetFinancialReport", "Generate a financial report", external.ServiceAccounting, TypeQuery},
		{"GetAccounts", "List chart of accounts", external.ServiceAccounting, TypeQuery},
		{"GetTransactions", "List ledger transactions", external.ServiceAccounting, TypeQuery},
		{"GetBalanceSheet", "Retrieve the balance sheet", external.ServiceAccounting, TypeQuery},
		{"GetWorkflows", "List workflow definitions", external.ServiceWorkflow, TypeQuery},
		{"StartWorkflow", "Start a workflow instance", external.ServiceWorkflow, TypeAction},
		{"GetWorkflowStatus", "Check the status of a workflow instance", external.ServiceWorkflow, TypeQuery},
		{"GetTasks", "List pending workflow tasks", external.ServiceWorkflow, TypeQuery},
	}

	out := make([]*Skill, 0, len(specs))
	for _, spec := range specs {
		skill, err := New(spec.name, spec.description, spec.service, spec.skillType, "{}")
		if err != nil {
			// Static definitions are always valid.
			continue
		}
		skill.Version = "1.0"
		out = append(out, skill)
	}
	return out
}
