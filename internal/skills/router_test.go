package skills

import (
	"context"
	"reflect"
	"testing"

	agenterrors "copilot/internal/errors"
	"copilot/internal/external"
	"copilot/internal/logging"
)

// fakeCaller scripts downstream behavior per service.
type fakeCaller struct {
	calls     []string
	response  string
	callErr   error
	available map[string]bool
	probeErr  error
}

func (f *fakeCaller) Call(ctx context.Context, service, operation, parameters string) (string, error) {
	f.calls = append(f.calls, service+"/"+operation+"?"+parameters)
	if f.callErr != nil {
		return "", f.callErr
	}
	return f.response, nil
}

func (f *fakeCaller) IsAvailable(ctx context.Context, service string) (bool, error) {
	if f.probeErr != nil {
		return false, f.probeErr
	}
	return f.available[service], nil
}

func seedRegistry(t *testing.T) Registry {
	t.Helper()
	registry := NewMemoryRegistry()
	if err := Populate(context.Background(), registry, Defaults()); err != nil {
		t.Fatalf("populate: %v", err)
	}
	return registry
}

func TestRouteForwardsSkillNameAsOperation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	caller := &fakeCaller{response: `{"balance":12}`}
	router := NewRouter(seedRegistry(t), caller, logging.Nop())

	body, err := router.Route(ctx, "GetLeaveBalance", "employeeId=42")
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if body != `{"balance":12}` {
		t.Fatalf("body = %q", body)
	}
	want := []string{"hrservice/GetLeaveBalance?employeeId=42"}
	if !reflect.DeepEqual(caller.calls, want) {
		t.Fatalf("calls = %v, want %v", caller.calls, want)
	}
}

func TestRouteUnknownSkillIsNotFound(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{}
	router := NewRouter(seedRegistry(t), caller, logging.Nop())

	if _, err := router.Route(context.Background(), "Daydream", ""); !agenterrors.IsNotFound(err) {
		t.Fatalf("expected not_found, got %v", err)
	}
	if len(caller.calls) != 0 {
		t.Fatalf("unknown skill must not reach downstream")
	}
}

func TestRouteInactiveSkillIsNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	registry := seedRegistry(t)
	skill, _ := registry.GetByName(ctx, "GetStock")
	skill.Deactivate()
	if err := registry.Update(ctx, skill); err != nil {
		t.Fatalf("update: %v", err)
	}

	caller := &fakeCaller{}
	router := NewRouter(registry, caller, logging.Nop())
	if _, err := router.Route(ctx, "GetStock", ""); !agenterrors.IsNotFound(err) {
		t.Fatalf("expected not_found for inactive skill, got %v", err)
	}
}

func TestRouteUnsupportedBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	registry := NewMemoryRegistry()
	skill, _ := New("ForecastDemand", "", "mlservice", TypeQuery, "{}")
	if err := registry.Add(ctx, skill); err != nil {
		t.Fatalf("add: %v", err)
	}

	router := NewRouter(registry, &fakeCaller{}, logging.Nop())
	if _, err := router.Route(ctx, "ForecastDemand", ""); !agenterrors.Is(err, agenterrors.KindUnsupportedBackend) {
		t.Fatalf("expected unsupported_backend, got %v", err)
	}
}

func TestListAvailableExcludesInactive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	registry := seedRegistry(t)
	skill, _ := registry.GetByName(ctx, "GetStock")
	skill.Deactivate()
	if err := registry.Update(ctx, skill); err != nil {
		t.Fatalf("update: %v", err)
	}

	router := NewRouter(registry, &fakeCaller{}, logging.Nop())
	names, err := router.ListAvailable(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != len(Defaults())-1 {
		t.Fatalf("expected %d names, got %d", len(Defaults())-1, len(names))
	}
	for _, name := range names {
		if name == "GetStock" {
			t.Fatalf("inactive skill listed as available")
		}
	}
}

func TestValidateChecksSkillAndServiceHealth(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	registry := seedRegistry(t)
	router := NewRouter(registry, &fakeCaller{
		available: map[string]bool{external.ServiceHR: true},
	}, logging.Nop())

	if !router.Validate(ctx, "GetLeaveBalance") {
		t.Fatalf("healthy service with active skill must validate")
	}
	if router.Validate(ctx, "GetStock") {
		t.Fatalf("unavailable service must fail validation")
	}
	if router.Validate(ctx, "Daydream") {
		t.Fatalf("unknown skill must fail validation")
	}
}

func TestValidateSwallowsProbeErrors(t *testing.T) {
	t.Parallel()

	router := NewRouter(seedRegistry(t), &fakeCaller{
		probeErr: agenterrors.New(agenterrors.KindUnknownService, "unknown service"),
	}, logging.Nop())

	if router.Validate(context.Background(), "GetLeaveBalance") {
		t.Fatalf("probe error must report not executable")
	}
}
