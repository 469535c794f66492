package gate_test

import (
	"testing"

	"github.com/vidanatural/farmacia-web/gate"
)

func TestPermission_NewPermission(t *testing.T) {
	perm := gate.NewPermission("sale", gate.ActionIssue)
	if perm != "sale:issue" {
		t.Errorf("expected 'sale:issue', got '%s'", perm)
	}
}

func TestPermission_Parse(t *testing.T) {
	res, act := gate.Permission("product:view").Parse()
	if res != "product" || act != gate.ActionView {
		t.Errorf("unexpected parse result '%s' '%s'", res, act)
	}
	res, act = gate.Permission("invalid").Parse()
	if res != "" || act != "" {
		t.Errorf("expected empty strings, got '%s' and '%s'", res, act)
	}
}

func TestPermission_Matches(t *testing.T) {
	tests := []struct {
		held, requested gate.Permission
		want            bool
	}{
		{"product:create", "product:create", true},
		{"product:create", "product:delete", false},
		{"product:create", "customer:create", false},
		{gate.PermissionSuperAdmin, "employee:delete", true},
		{"product:*", "product:delete", true},
		{"product:*", "supplier:delete", false},
		{"*:view", "supplier:view", true},
		{"*:view", "supplier:update", false},
		{"broken", "broken", true},
		{"broken", "product:view", false},
	}
	for _, tt := range tests {
		if got := tt.held.Matches(tt.requested); got != tt.want {
			t.Errorf("%s.Matches(%s) = %v, want %v", tt.held, tt.requested, got, tt.want)
		}
	}
}
