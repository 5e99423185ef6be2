package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/ontime/core/directory"
)

type institutionRepository struct {
	db *sqlx.DB
}

var _ directory.Repository = (*institutionRepository)(nil) // interface compliance check

func NewInstitutionRepository(db *sqlx.DB) directory.Repository {
	return &institutionRepository{db: db}
}

type (
	institutionRow struct {
		ID        int       `db:"id"`
		Name      string    `db:"name"`
		Slug      string    `db:"slug"`
		Website   string    `db:"website"`
		Timezone  string    `db:"timezone"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	deadlineRow struct {
		ID            string    `db:"id"`
		InstitutionID int       `db:"institution_id"`
		Title         string    `db:"title"`
		Date          time.Time `db:"date"`
		Position      int       `db:"position"`
	}
)

func (r institutionRow) institution() directory.Institution {
	return directory.Institution{
		ID:        r.ID,
		Name:      r.Name,
		Slug:      r.Slug,
		Website:   r.Website,
		Timezone:  r.Timezone,
		Deadlines: []directory.Deadline{},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (repo *institutionRepository) CheckSlugUniqueness(slug string, excluded ...directory.Institution) error {
	exclIDs := make([]int, 0, len(excluded))
	for _, inst := range excluded {
		exclIDs = append(exclIDs, inst.ID)
	}

	var count int
	err := repo.db.Get(
		&count,
		`SELECT COUNT(*) FROM institution WHERE slug = $1 AND NOT (id = ANY($2))`,
		slug, pq.Array(exclIDs),
	)
	if err != nil {
		return errors.Wrap(err, "checking slug uniqueness")
	}
	if count > 0 {
		return directory.ErrSlugExists
	}
	return nil
}

func (repo *institutionRepository) CreateInstitution(inst directory.Institution) (directory.Institution, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return directory.Institution{}, errors.Wrap(err, "starting transaction")
	}
	defer tx.Rollback()

	err = tx.Get(
		&inst.ID,
		`INSERT INTO institution (name, slug, website, timezone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		inst.Name, inst.Slug, inst.Website, inst.Timezone, inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		return directory.Institution{}, errors.Wrap(err, "inserting institution")
	}
	if err = insertDeadlines(tx, inst.ID, inst.Deadlines); err != nil {
		return directory.Institution{}, err
	}
	if err = tx.Commit(); err != nil {
		return directory.Institution{}, errors.Wrap(err, "committing transaction")
	}
	return inst, nil
}

func (repo *institutionRepository) GetInstitutionByID(id int) (directory.Institution, error) {
	var row institutionRow
	err := repo.db.Get(&row, `SELECT * FROM institution WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return directory.Institution{}, directory.ErrNotFound
	}
	if err != nil {
		return directory.Institution{}, errors.Wrap(err, "getting institution")
	}

	insts, err := repo.attachDeadlines([]institutionRow{row})
	if err != nil {
		return directory.Institution{}, err
	}
	return insts[0], nil
}

func (repo *institutionRepository) GetInstitutionsByID(ids ...int) ([]directory.Institution, error) {
	var rows []institutionRow
	err := repo.db.Select(
		&rows,
		`SELECT * FROM institution WHERE id = ANY($1) ORDER BY name`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, errors.Wrap(err, "getting institutions")
	}
	return repo.attachDeadlines(rows)
}

func (repo *institutionRepository) SearchInstitutions(query string, limit int) ([]directory.Institution, error) {
	var rows []institutionRow
	err := repo.db.Select(
		&rows,
		`SELECT * FROM institution WHERE name ILIKE '%' || $1 || '%' ORDER BY name LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "searching institutions")
	}
	return repo.attachDeadlines(rows)
}

func (repo *institutionRepository) UpdateInstitution(inst directory.Institution) (directory.Institution, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return directory.Institution{}, errors.Wrap(err, "starting transaction")
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE institution SET name = $1, website = $2, timezone = $3, updated_at = $4 WHERE id = $5`,
		inst.Name, inst.Website, inst.Timezone, inst.UpdatedAt, inst.ID,
	)
	if err != nil {
		return directory.Institution{}, errors.Wrap(err, "updating institution")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return directory.Institution{}, directory.ErrNotFound
	}

	// the deadline sequence is replaced wholesale
	if _, err = tx.Exec(`DELETE FROM institution_deadline WHERE institution_id = $1`, inst.ID); err != nil {
		return directory.Institution{}, errors.Wrap(err, "clearing deadlines")
	}
	if err = insertDeadlines(tx, inst.ID, inst.Deadlines); err != nil {
		return directory.Institution{}, err
	}
	if err = tx.Commit(); err != nil {
		return directory.Institution{}, errors.Wrap(err, "committing transaction")
	}
	return inst, nil
}

func (repo *institutionRepository) DeleteInstitutionsByID(ids ...int) error {
	_, err := repo.db.Exec(`DELETE FROM institution WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting institutions")
}

func insertDeadlines(tx *sqlx.Tx, institutionID int, deadlines []directory.Deadline) error {
	for i, d := range deadlines {
		_, err := tx.Exec(
			`INSERT INTO institution_deadline (id, institution_id, title, date, position)
			 VALUES ($1, $2, $3, $4, $5)`,
			d.ID, institutionID, d.Title, d.Date, i,
		)
		if err != nil {
			return errors.Wrap(err, "inserting deadline")
		}
	}
	return nil
}

func (repo *institutionRepository) attachDeadlines(rows []institutionRow) ([]directory.Institution, error) {
	insts := make([]directory.Institution, 0, len(rows))
	if len(rows) == 0 {
		return insts, nil
	}

	ids := make([]int, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	var dRows []deadlineRow
	err := repo.db.Select(
		&dRows,
		`SELECT * FROM institution_deadline WHERE institution_id = ANY($1) ORDER BY institution_id, position`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, errors.Wrap(err, "getting deadlines")
	}

	byInst := make(map[int][]directory.Deadline, len(rows))
	for _, dr := range dRows {
		byInst[dr.InstitutionID] = append(byInst[dr.InstitutionID], directory.Deadline{
			ID:    dr.ID,
			Title: dr.Title,
			Date:  dr.Date.Format("2006-01-02"),
		})
	}
	for _, row := range rows {
		inst := row.institution()
		if ds, ok := byInst[row.ID]; ok {
			inst.Deadlines = ds
		}
		insts = append(insts, inst)
	}
	return insts, nil
}
