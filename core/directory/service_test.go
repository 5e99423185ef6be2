package directory_test

import (
	"fmt"
	"testing"

	"github.com/trezcool/ontime/core/directory"
	inmemdb "github.com/trezcool/ontime/storage/database/inmem"
	testutil "github.com/trezcool/ontime/tests"
)

func setup(t *testing.T) *directory.Service {
	t.Helper()
	testutil.InitValidators()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	return directory.NewService(inmemdb.NewInstitutionRepository(db))
}

func TestService_Create(t *testing.T) {
	svc := setup(t)

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			ni   directory.NewInstitution
		}{
			{name: "empty", ni: directory.NewInstitution{}},
			{name: "bad website", ni: directory.NewInstitution{Name: "MIT", Website: "mit.edu", Timezone: "America/New_York"}},
			{name: "bad timezone", ni: directory.NewInstitution{Name: "MIT", Website: "https://mit.edu", Timezone: "lol"}},
			{
				name: "bad deadline date",
				ni: directory.NewInstitution{
					Name: "MIT", Website: "https://mit.edu", Timezone: "America/New_York",
					Deadlines: []directory.NewDeadline{{Title: "EA", Date: "11/01/2026"}},
				},
			},
			{
				name: "deadline missing title",
				ni: directory.NewInstitution{
					Name: "MIT", Website: "https://mit.edu", Timezone: "America/New_York",
					Deadlines: []directory.NewDeadline{{Date: "2026-11-01"}},
				},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := svc.Create(tt.ni); err == nil {
					t.Error("Create() expected a validation error")
				}
			})
		}
	})

	t.Run("ok", func(t *testing.T) {
		inst, err := svc.Create(directory.NewInstitution{
			Name: "  MIT ", Website: "https://mit.edu", Timezone: "America/New_York",
			Deadlines: []directory.NewDeadline{
				{Title: "Early Action", Date: "2026-11-01"},
				{Title: "Regular Decision", Date: "2027-01-01"},
			},
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if inst.ID == 0 {
			t.Error("ID not assigned")
		}
		if inst.Name != "MIT" {
			t.Errorf("Name = %q, want cleaned %q", inst.Name, "MIT")
		}
		if inst.Slug != "mit" {
			t.Errorf("Slug = %q, want mit", inst.Slug)
		}
		if inst.CreatedAt.IsZero() || !inst.CreatedAt.Equal(inst.UpdatedAt) {
			t.Errorf("timestamps not set: %v / %v", inst.CreatedAt, inst.UpdatedAt)
		}
		seen := make(map[string]bool)
		for _, d := range inst.Deadlines {
			if d.ID == "" || seen[d.ID] {
				t.Errorf("deadline ids not unique and opaque: %+v", inst.Deadlines)
			}
			seen[d.ID] = true
		}
	})
}

func TestService_slugUniqueness(t *testing.T) {
	svc := setup(t)

	// identical names slugify identically; suffixes keep the slugs unique
	first := testutil.CreateInstitution(t, svc, "Springfield College", "https://one.test", "America/New_York")
	second := testutil.CreateInstitution(t, svc, "Springfield  College", "https://two.test", "America/Chicago")
	third := testutil.CreateInstitution(t, svc, "springfield college", "https://three.test", "America/Denver")

	if first.Slug != "springfield-college" {
		t.Errorf("first Slug = %q", first.Slug)
	}
	if second.Slug != "springfield-college-2" {
		t.Errorf("second Slug = %q", second.Slug)
	}
	if third.Slug != "springfield-college-3" {
		t.Errorf("third Slug = %q", third.Slug)
	}
}

func TestService_Update(t *testing.T) {
	svc := setup(t)

	inst := testutil.CreateInstitution(t, svc, "MIT", "https://mit.edu", "America/New_York",
		directory.NewDeadline{Title: "Early Action", Date: "2026-11-01"},
	)

	t.Run("not found", func(t *testing.T) {
		if _, err := svc.Update(999, directory.UpdateInstitution{Name: "Nope"}); err != directory.ErrNotFound {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("empty fields keep originals, slug never regenerated", func(t *testing.T) {
		got, err := svc.Update(inst.ID, directory.UpdateInstitution{Name: "MIT Institute"})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got.Name != "MIT Institute" {
			t.Errorf("Name = %q", got.Name)
		}
		if got.Slug != "mit" {
			t.Errorf("Slug = %q, want mit (unchanged)", got.Slug)
		}
		if got.Website != inst.Website || got.Timezone != inst.Timezone {
			t.Errorf("untouched fields changed: %+v", got)
		}
		if len(got.Deadlines) != 1 {
			t.Errorf("nil Deadlines replaced the sequence: %+v", got.Deadlines)
		}
	})

	t.Run("non-nil deadlines replace wholesale", func(t *testing.T) {
		got, err := svc.Update(inst.ID, directory.UpdateInstitution{
			Deadlines: []directory.NewDeadline{{Title: "Transfer", Date: "2027-03-01"}},
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if len(got.Deadlines) != 1 || got.Deadlines[0].Title != "Transfer" {
			t.Errorf("Deadlines = %+v", got.Deadlines)
		}
	})
}

func TestService_Search(t *testing.T) {
	svc := setup(t)

	for i := 0; i < directory.SearchLimit+10; i++ {
		testutil.CreateInstitution(t, svc, fmt.Sprintf("University %03d", i), "https://u.test", "UTC")
	}

	insts, err := svc.Search("university")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(insts) != directory.SearchLimit {
		t.Errorf("len(Search()) = %d, want capped at %d", len(insts), directory.SearchLimit)
	}

	insts, err = svc.Search("  UNIVERSITY 003 ")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(insts) != 1 || insts[0].Name != "University 003" {
		t.Errorf("Search() = %+v", insts)
	}
}
