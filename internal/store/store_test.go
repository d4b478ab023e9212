package store

import (
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
)

func TestItemStatusValues(t *testing.T) {
	statuses := []ItemStatus{StatusPlanning, StatusInProgress, StatusCompleted, StatusOnHold}
	expected := []string{"planning", "in_progress", "completed", "on_hold"}
	for i, s := range statuses {
		if string(s) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], s)
		}
	}
}

func TestProgressMethodUsesSubUnits(t *testing.T) {
	tests := []struct {
		method ProgressMethod
		want   bool
	}{
		{MethodManual, false},
		{MethodUnitBased, true},
		{MethodHybrid, true},
		{ProgressMethod("unknown"), false},
	}
	for _, tt := range tests {
		if got := tt.method.UsesSubUnits(); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.method, tt.want, got)
		}
	}
}

func TestItemFilterDefaults(t *testing.T) {
	f := ItemFilter{}
	if f.Limit != 0 {
		t.Errorf("expected 0 default limit, got %d", f.Limit)
	}
	if f.Status != nil || f.AreaID != nil || f.Strategic != nil {
		t.Error("expected nil optional filters")
	}
}

func TestParseNullDecimal(t *testing.T) {
	d, err := parseNullDecimal(sql.NullString{})
	if err != nil || d.Valid {
		t.Fatalf("expected invalid decimal without error, got %v, %v", d, err)
	}

	d, err = parseNullDecimal(sql.NullString{String: "33.34", Valid: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Valid || !d.Decimal.Equal(decimal.RequireFromString("33.34")) {
		t.Errorf("expected 33.34, got %v", d)
	}

	if _, err := parseNullDecimal(sql.NullString{String: "abc", Valid: true}); err == nil {
		t.Error("expected parse error")
	}
}
