package devhost

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
)

// txState adapts an open LevelDB transaction to keyedstore.State.
type txState struct {
	trx *leveldb.Transaction
}

func (s *txState) Get(key []byte) ([]byte, error) {
	value, err := s.trx.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

func (s *txState) Put(key, value []byte) error {
	return s.trx.Put(key, value, nil)
}

func (s *txState) Delete(key []byte) error {
	return s.trx.Delete(key, nil)
}
