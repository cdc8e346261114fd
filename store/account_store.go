package store

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/mezonai/fastpay/errors"
	"github.com/mezonai/fastpay/logx"
	"github.com/mezonai/fastpay/types"
)

// AccountStore owns the account map of one authority. It guards insert and lookup only;
// mutation of an account's fields is serialized by the ledger's per-account locks.
type AccountStore interface {
	Create(publicKey string, balance *uint256.Int) (*types.Account, error)
	GetByAddr(publicKey string) (*types.Account, bool)
	GetOrCreate(publicKey string, balance *uint256.Int) (account *types.Account, created bool)
	Len() int
}

type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*types.Account
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		accounts: make(map[string]*types.Account),
	}
}

func (s *MemoryAccountStore) Create(publicKey string, balance *uint256.Int) (*types.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[publicKey]; exists {
		return nil, errors.Newf(errors.CodeAlreadyExists, "account %s already exists", publicKey)
	}
	account := types.NewAccount(publicKey, balance)
	s.accounts[publicKey] = account
	logx.Debug("STORE", "created account ", publicKey)
	return account, nil
}

func (s *MemoryAccountStore) GetByAddr(publicKey string) (*types.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[publicKey]
	return account, ok
}

// GetOrCreate returns the existing account or inserts a fresh one atomically, so two
// concurrent first credits to the same key observe the same record.
func (s *MemoryAccountStore) GetOrCreate(publicKey string, balance *uint256.Int) (*types.Account, bool) {
	if account, ok := s.GetByAddr(publicKey); ok {
		return account, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if account, ok := s.accounts[publicKey]; ok {
		return account, false
	}
	account := types.NewAccount(publicKey, balance)
	s.accounts[publicKey] = account
	logx.Debug("STORE", "created recipient account ", publicKey)
	return account, true
}

func (s *MemoryAccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}
