package inmemdb

import (
	"sort"
	"strings"

	"github.com/trezcool/ontime/core/directory"
)

var pkCount int

type institutionRepository struct {
	db *institutionTable
}

var _ directory.Repository = (*institutionRepository)(nil) // interface compliance check

func NewInstitutionRepository(db *DB) directory.Repository {
	return &institutionRepository{db: db.institution}
}

// query must be called with the table lock held.
func (repo *institutionRepository) query() []directory.Institution {
	insts := make([]directory.Institution, 0, len(repo.db.table))
	for _, inst := range repo.db.table {
		insts = append(insts, *inst)
	}
	sort.Slice(insts, func(i, j int) bool { return insts[i].Name < insts[j].Name })
	return insts
}

func (repo *institutionRepository) CheckSlugUniqueness(slug string, excluded ...directory.Institution) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, inst := range repo.db.table {
		if inst.Slug == slug && !isExcluded(*inst, excluded) {
			return directory.ErrSlugExists
		}
	}
	return nil
}

func (repo *institutionRepository) CreateInstitution(inst directory.Institution) (directory.Institution, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	pkCount++
	inst.ID = pkCount
	repo.db.table[inst.ID] = &inst
	return inst, nil
}

func (repo *institutionRepository) GetInstitutionByID(id int) (directory.Institution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if inst, ok := repo.db.table[id]; ok {
		return *inst, nil
	}
	return directory.Institution{}, directory.ErrNotFound
}

func (repo *institutionRepository) GetInstitutionsByID(ids ...int) ([]directory.Institution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	insts := make([]directory.Institution, 0, len(ids))
	for _, inst := range repo.query() {
		for _, id := range ids {
			if inst.ID == id {
				insts = append(insts, inst)
				break
			}
		}
	}
	return insts, nil
}

func (repo *institutionRepository) SearchInstitutions(query string, limit int) ([]directory.Institution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	query = strings.ToLower(query)
	insts := make([]directory.Institution, 0)
	for _, inst := range repo.query() {
		if len(insts) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(inst.Name), query) {
			insts = append(insts, inst)
		}
	}
	return insts, nil
}

func (repo *institutionRepository) UpdateInstitution(inst directory.Institution) (directory.Institution, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[inst.ID]; !ok {
		return directory.Institution{}, directory.ErrNotFound
	}
	repo.db.table[inst.ID] = &inst
	return inst, nil
}

func (repo *institutionRepository) DeleteInstitutionsByID(ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func isExcluded(inst directory.Institution, excluded []directory.Institution) bool {
	for _, excl := range excluded {
		if inst.ID == excl.ID {
			return true
		}
	}
	return false
}
