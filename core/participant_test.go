package core

import "testing"

func TestDefaultRoster(t *testing.T) {
	roster := DefaultRoster()

	if len(roster) != 10 {
		t.Fatalf("expected 10 participants, got %d", len(roster))
	}

	seen := make(map[string]bool)
	for _, p := range roster {
		if p.ID == "" || p.Name == "" || p.Role == "" {
			t.Errorf("participant missing identity fields: %+v", p)
		}
		if seen[p.ID] {
			t.Errorf("duplicate participant id %s", p.ID)
		}
		seen[p.ID] = true
		if len(p.Traits) == 0 || len(p.Expertise) == 0 {
			t.Errorf("participant %s missing traits or expertise", p.ID)
		}
	}

	// The coordinator's fixed flows rely on these roles being present.
	wantRoles := []string{RoleCreator, RoleCurator, RoleGovernance, RoleBullAnalyst, RoleBearAnalyst}
	for _, role := range wantRoles {
		found := false
		for _, p := range roster {
			if p.Role == role {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("roster missing role %s", role)
		}
	}
}
