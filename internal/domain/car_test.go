package domain

import (
	"errors"
	"testing"
)

func TestDefaultCatalogIsSeeded(t *testing.T) {
	cars := DefaultCatalog()
	if len(cars) != 3 {
		t.Fatalf("expected 3 seed cars, got %d", len(cars))
	}
	if cars[0].ID != "1" || cars[0].Brand != "BUGATTI" || cars[0].Price != 3500000 {
		t.Errorf("unexpected first seed car: %+v", cars[0])
	}

	// Callers get their own copy.
	cars[0].Name = "mutated"
	if DefaultCatalog()[0].Name == "mutated" {
		t.Error("DefaultCatalog returned shared backing storage")
	}
}

func TestParseCatalogRejectsUnknownCategory(t *testing.T) {
	_, err := ParseCatalog([]byte("cars:\n  - id: x\n    name: Y\n    category: Truck\n"))
	if err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestCarInputValidate(t *testing.T) {
	valid := CarInput{Name: "Huracan", Brand: "LAMBORGHINI", Price: 250000}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}

	cases := []CarInput{
		{Brand: "X", Price: 1},
		{Name: "X", Price: 1},
		{Name: "X", Brand: "Y", Price: -1},
		{Name: "X", Brand: "Y", Price: 1, Category: "Truck"},
	}
	for _, in := range cases {
		if err := in.Validate(); !errors.Is(err, ErrInvalidCar) {
			t.Errorf("expected ErrInvalidCar for %+v, got %v", in, err)
		}
	}
}

func TestCarInputApplyKeepsIdentity(t *testing.T) {
	car := Car{ID: "abc", Name: "Old", Category: CategoryGT}
	got := CarInput{Name: "New", Brand: "B", Price: 10}.Apply(car)
	if got.ID != "abc" {
		t.Errorf("id changed to %q", got.ID)
	}
	if got.Name != "New" || got.Category != DefaultCategory {
		t.Errorf("unexpected apply result: %+v", got)
	}
}

func TestCarPatchApplyOnlyProvidedFields(t *testing.T) {
	price := 99.0
	car := Car{ID: "1", Name: "Keep", Brand: "Keep", Price: 1}
	got := CarPatch{Price: &price}.Apply(car)
	if got.Price != 99 || got.Name != "Keep" || got.Brand != "Keep" {
		t.Errorf("unexpected patch result: %+v", got)
	}
}

func TestIsAdminEmail(t *testing.T) {
	if !IsAdminEmail(" admin@xcar.com ") {
		t.Error("expected reserved email to match")
	}
	if IsAdminEmail("ADMIN@XCAR.COM") {
		t.Error("reserved email must match exactly")
	}
	if IsAdminEmail("someone@xcar.com") {
		t.Error("unexpected admin match")
	}
}

func TestCarPatchValidate(t *testing.T) {
	negative := -1.0
	empty := ""
	bogus := Category("Truck")

	if err := (CarPatch{}).Validate(); err != nil {
		t.Fatalf("empty patch should be valid: %v", err)
	}
	for name, patch := range map[string]CarPatch{
		"negative price": {Price: &negative},
		"empty name":     {Name: &empty},
		"bad category":   {Category: &bogus},
	} {
		if err := patch.Validate(); !errors.Is(err, ErrInvalidCar) {
			t.Errorf("%s: expected ErrInvalidCar, got %v", name, err)
		}
	}
}
