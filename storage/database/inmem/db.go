package inmemdb

import (
	"sync"

	"github.com/tutorcraft/tutorcraft/core/resource"
	"github.com/tutorcraft/tutorcraft/core/user"
)

type (
	// DB is an in-memory stand-in for the Postgres database, used by tests and the local
	// demo mode.
	DB struct {
		user     *userTable
		resource *resourceTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	resourceTable struct {
		sync.RWMutex
		table map[string]*resource.Resource
	}
)

func Open() *DB {
	return &DB{
		user:     &userTable{table: make(map[string]*user.User)},
		resource: &resourceTable{table: make(map[string]*resource.Resource)},
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.resource.Lock()
	db.resource.table = make(map[string]*resource.Resource)
	db.resource.Unlock()
}
