package directory

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ontime/core"
)

var (
	// errors
	ErrNotFound   = errors.New("institution not found")
	ErrSlugExists = errors.New("an institution with this slug already exists")
)

// SearchLimit caps directory search results.
const SearchLimit = 50

type (
	Repository interface {
		CheckSlugUniqueness(slug string, excluded ...Institution) error
		CreateInstitution(inst Institution) (Institution, error)
		GetInstitutionByID(id int) (Institution, error)
		// GetInstitutionsByID fetches the given ids, skipping unknown ones.
		GetInstitutionsByID(ids ...int) ([]Institution, error)
		// SearchInstitutions does a case-insensitive name-substring match,
		// ordered by name. An empty query matches everything (capped by limit).
		SearchInstitutions(query string, limit int) ([]Institution, error)
		UpdateInstitution(inst Institution) (Institution, error)
		DeleteInstitutionsByID(ids ...int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ni NewInstitution) (Institution, error) {
	if err := ni.Validate(); err != nil {
		return Institution{}, err
	}

	slug, err := svc.uniqueSlug(Slugify(ni.Name))
	if err != nil {
		return Institution{}, err
	}

	now := time.Now().UTC()
	inst := Institution{
		Name:      ni.Name,
		Slug:      slug,
		Website:   ni.Website,
		Timezone:  ni.Timezone,
		Deadlines: newDeadlines(ni.Deadlines),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateInstitution(inst)
}

func (svc *Service) GetByID(id int) (Institution, error) {
	return svc.repo.GetInstitutionByID(id)
}

func (svc *Service) GetByIDs(ids ...int) ([]Institution, error) {
	if len(ids) == 0 {
		return []Institution{}, nil
	}
	return svc.repo.GetInstitutionsByID(ids...)
}

func (svc *Service) Search(query string) ([]Institution, error) {
	return svc.repo.SearchInstitutions(core.CleanString(query), SearchLimit)
}

func (svc *Service) Update(id int, ui UpdateInstitution) (Institution, error) {
	orig, err := svc.repo.GetInstitutionByID(id)
	if err != nil {
		return Institution{}, err
	}
	if err = ui.Validate(orig); err != nil {
		return Institution{}, err
	}

	inst := orig
	inst.Name = ui.Name
	inst.Website = ui.Website
	inst.Timezone = ui.Timezone
	if ui.Deadlines != nil {
		inst.Deadlines = newDeadlines(ui.Deadlines)
	}
	inst.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateInstitution(inst)
}

func (svc *Service) Delete(ids ...int) error {
	return svc.repo.DeleteInstitutionsByID(ids...)
}

// uniqueSlug probes the repository for a free slug, suffixing `-2`, `-3`, ...
// on collision. Collisions are unlikely in practice so the loop stays short.
func (svc *Service) uniqueSlug(base string, excluded ...Institution) (string, error) {
	candidate := base
	for suffix := 2; ; suffix++ {
		err := svc.repo.CheckSlugUniqueness(candidate, excluded...)
		if err == nil {
			return candidate, nil
		}
		if err != ErrSlugExists {
			return "", err
		}
		candidate = fmt.Sprintf("%s-%d", base, suffix)
	}
}

// newDeadlines assigns each deadline a stable opaque id.
func newDeadlines(nds []NewDeadline) []Deadline {
	deadlines := make([]Deadline, 0, len(nds))
	for _, nd := range nds {
		deadlines = append(deadlines, Deadline{
			ID:    uuid.New().String(),
			Title: core.CleanString(nd.Title),
			Date:  nd.Date,
		})
	}
	return deadlines
}
