package inmemdb

import (
	"sync"

	"github.com/trezcool/ontime/core/directory"
)

type (
	DB struct {
		institution *institutionTable
	}

	institutionTable struct {
		sync.RWMutex
		table map[int]*directory.Institution
	}
)

func Open() (*DB, error) {
	db := &DB{
		institution: &institutionTable{table: make(map[int]*directory.Institution)},
	}
	return db, nil
}
