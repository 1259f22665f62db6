// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package store

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/lassandro/gopdp12/pkg/machine"
)

const keyPrefix = "snapshot/"

var ErrNotFound = errors.New("snapshot not found")

// Snapshot is a restartable machine: the registers and the whole memory
// image. History is not saved.
type Snapshot struct {
	State  machine.State
	Memory [machine.MEMORY_SIZE]uint16
}

// Capture takes a snapshot of the machine at its cursor.
func Capture(mc *machine.Machine) Snapshot {
	state, mem := mc.CurrentState()
	return Snapshot{State: state, Memory: mem.Dump()}
}

// Restore builds a fresh machine with the console devices installed and
// the snapshot as its initial history entry.
func (snap *Snapshot) Restore() *machine.Machine {
	return machine.NewASR33(snap.State, machine.NewMemory(&snap.Memory))
}

// Store persists named snapshots in LevelDB.
type Store struct {
	db *leveldb.DB
}

// Open opens or creates a store at path. An empty path keeps the store in
// memory.
func Open(path string) (*Store, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "opening snapshot store %q", path)
	}

	return &Store{db: db}, nil
}

func (st *Store) Close() error {
	return st.db.Close()
}

func (st *Store) Save(name string, snap Snapshot) error {
	if name == "" {
		return errors.New("snapshot name is empty")
	}

	snap.State = snap.State.Masked()

	data, err := json.Marshal(&snap)

	if err != nil {
		return errors.Wrapf(err, "encoding snapshot %q", name)
	}

	return errors.Wrapf(
		st.db.Put([]byte(keyPrefix+name), data, nil),
		"saving snapshot %q", name,
	)
}

func (st *Store) Load(name string) (Snapshot, error) {
	var snap Snapshot

	data, err := st.db.Get([]byte(keyPrefix+name), nil)

	if err == leveldb.ErrNotFound {
		return snap, errors.Wrapf(ErrNotFound, "%q", name)
	} else if err != nil {
		return snap, errors.Wrapf(err, "loading snapshot %q", name)
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, errors.Wrapf(err, "decoding snapshot %q", name)
	}

	return snap, nil
}

// List returns the saved snapshot names in key order.
func (st *Store) List() ([]string, error) {
	iter := st.db.NewIterator(util.BytesPrefix([]byte(keyPrefix)), nil)
	defer iter.Release()

	var names []string

	for iter.Next() {
		names = append(names, strings.TrimPrefix(string(iter.Key()), keyPrefix))
	}

	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "listing snapshots")
	}

	return names, nil
}

func (st *Store) Delete(name string) error {
	key := []byte(keyPrefix + name)

	if exists, err := st.db.Has(key, nil); err != nil {
		return errors.Wrapf(err, "deleting snapshot %q", name)
	} else if !exists {
		return errors.Wrapf(ErrNotFound, "%q", name)
	}

	return errors.Wrapf(st.db.Delete(key, nil), "deleting snapshot %q", name)
}
