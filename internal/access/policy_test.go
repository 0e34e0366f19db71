package access

import (
	"context"
	"testing"

	"seedprocure-backend/internal/models"
	"seedprocure-backend/internal/testutil"
)

func TestScopeForMarksAssignedVarieties(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	emp := testutil.SeedEmployee(t, db, "a@example.com", models.RoleFieldOfficer, "pw")
	other := testutil.SeedEmployee(t, db, "b@example.com", models.RoleFieldOfficer, "pw")
	v1 := testutil.SeedVariety(t, db, "GCH-7")
	v2 := testutil.SeedVariety(t, db, "GJG-32")
	testutil.SeedAssignment(t, db, emp.ID, v1.ID)
	testutil.SeedAssignment(t, db, other.ID, v2.ID)

	p := NewPolicy(db)
	scope, err := p.ScopeFor(ctx, emp.ID)
	if err != nil {
		t.Fatalf("ScopeFor: %v", err)
	}
	if !scope.IsAssigned(v1.ID) || scope.IsAssigned(v2.ID) || scope.Len() != 1 {
		t.Fatalf("unexpected scope %+v", scope)
	}

	ok, err := p.IsAssigned(ctx, other.ID, v1.ID)
	if err != nil || ok {
		t.Fatalf("IsAssigned(other, v1) = %v, %v", ok, err)
	}
}

func TestAssignIsIdempotentAndUnassignRemoves(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	emp := testutil.SeedEmployee(t, db, "a@example.com", models.RoleFieldOfficer, "pw")
	v := testutil.SeedVariety(t, db, "GCH-7")
	p := NewPolicy(db)

	for i := 0; i < 2; i++ {
		if err := p.Assign(ctx, emp.ID, v.ID); err != nil {
			t.Fatalf("Assign #%d: %v", i, err)
		}
	}
	var n int64
	db.Model(&models.EmployeeAssignment{}).Count(&n)
	if n != 1 {
		t.Fatalf("assignments = %d, want 1", n)
	}

	if err := p.Unassign(ctx, emp.ID, v.ID); err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	ok, _ := p.IsAssigned(ctx, emp.ID, v.ID)
	if ok {
		t.Fatalf("still assigned after Unassign")
	}
}

func TestScopeForAnonymousIsEmpty(t *testing.T) {
	db := testutil.NewDB(t)
	scope, err := NewPolicy(db).ScopeFor(context.Background(), 0)
	if err != nil || scope.Len() != 0 {
		t.Fatalf("scope = %+v, err = %v", scope, err)
	}
}
