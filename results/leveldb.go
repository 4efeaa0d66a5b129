package results

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is a Saver that stores each Record as JSON in a LevelDB database, under a key made of
// its run ID and epoch.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) the database in the given directory.
func OpenLevelDB(dir string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "Couldn't open results database %q", dir)
	}

	return &LevelDB{db: db}, nil
}

func runPrefix(runID string) []byte {
	return []byte("run/" + runID + "/epoch/")
}

// epochs are zero-padded so that keys sort in epoch order
func recordKey(runID string, epoch int) []byte {
	return append(runPrefix(runID), fmt.Sprintf("%04d", epoch)...)
}

// Save implements Saver. A Record with the same run ID and epoch as an earlier one replaces it.
func (l *LevelDB) Save(r Record) error {
	val, err := json.Marshal(r)
	if err != nil {
		return errors.Wrapf(err, "Couldn't encode record")
	}

	return errors.Wrapf(l.db.Put(recordKey(r.RunID, r.Epoch), val, nil), "Couldn't save record")
}

// Records returns every Record of the given run, ordered by epoch.
func (l *LevelDB) Records(runID string) ([]Record, error) {
	iter := l.db.NewIterator(util.BytesPrefix(runPrefix(runID)), nil)
	defer iter.Release()

	var rs []Record
	for iter.Next() {
		var r Record
		if err := json.Unmarshal(iter.Value(), &r); err != nil {
			return nil, errors.Wrapf(err, "Couldn't decode record %q", iter.Key())
		}
		rs = append(rs, r)
	}

	return rs, errors.Wrapf(iter.Error(), "Couldn't read records")
}

// Close closes the database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}
