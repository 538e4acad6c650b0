package state

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/calehh/ballot-app/address"
	"github.com/calehh/ballot-app/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

const (
	ModifiedFlagNew = 1 << 0
	ModifiedFlagMod = 1 << 1
)

var (
	KeyState      = "s"
	KeyRecordBody = "r%x"
)

var (
	ErrTxNonceInvalid = errors.New("nonce invalid")
	ErrTxSigInvalid   = errors.New("signature invalid")
	ErrEmptyRecord    = errors.New("empty record payload")
)

// StateHeader is stored under KeyState and carries everything about the
// chain that is not a record.
type StateHeader struct {
	ChainId             string
	Height              uint64
	BlockTime           uint64
	ProgramID           address.Address
	RequireRegistration bool
	RootHash            []byte
	Hash                []byte
}

func (h *StateHeader) Clone() *StateHeader {
	n := *h
	if h.RootHash != nil {
		n.RootHash = common.CopyBytes(h.RootHash)
	}
	if h.Hash != nil {
		n.Hash = common.CopyBytes(h.Hash)
	}
	return &n
}

// State is the record overlay for one block. Writes stay in memory until
// Update flushes them into the tree.
type State struct {
	mtx    sync.Mutex
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64

	header   *StateHeader
	records  map[address.Address][]byte
	modified map[address.Address]uint32
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger) *State {
	s := &State{
		logger:   logger,
		db:       db,
		dbVer:    0,
		header:   new(StateHeader),
		records:  make(map[address.Address][]byte),
		modified: make(map[address.Address]uint32),
	}
	s.header.ProgramID = address.DefaultProgramID
	return s
}

func (s *State) nextState() *State {
	n := &State{
		logger:   s.logger,
		db:       s.db,
		dbVer:    s.dbVer,
		records:  make(map[address.Address][]byte),
		modified: make(map[address.Address]uint32),
	}
	n.header = s.header.Clone()
	if s.header.Hash != nil {
		n.header.Height = s.header.Height + 1
	}
	return n
}

func deepCopyMap[K comparable, V any](source map[K]V) map[K]V {
	res := make(map[K]V, len(source))
	for k, v := range source {
		switch x := any(v).(type) {
		case []byte:
			res[k] = any(common.CopyBytes(x)).(V)
		default:
			res[k] = v
		}
	}
	return res
}

// Clone returns an independent overlay over the same tree. Transactions run
// against a clone and the clone replaces the original only on success.
func (s *State) Clone() *State {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return &State{
		logger:   s.logger,
		db:       s.db,
		dbVer:    s.dbVer,
		header:   s.header.Clone(),
		records:  deepCopyMap(s.records),
		modified: deepCopyMap(s.modified),
	}
}

func (s *State) load() (err error) {
	val, err := s.db.Get([]byte(KeyState))
	if err != nil {
		return err
	}
	if val != nil {
		err = rlp.DecodeBytes(val, s.header)
		if err != nil {
			return
		}
		h := s.db.Hash()
		if h != nil {
			s.calcHash(h, true)
		}
	}
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = common.CopyBytes(rootHash)
		s.header.Hash = common.CopyBytes(h[:])
	}
	return
}

func recordKey(addr address.Address) []byte {
	return []byte(fmt.Sprintf(KeyRecordBody, addr[:]))
}

func (s *State) read(addr address.Address) ([]byte, error) {
	if v, ok := s.records[addr]; ok {
		return common.CopyBytes(v), nil
	}
	val, err := s.db.Get(recordKey(addr))
	if err != nil {
		return nil, err
	}
	// a missing key reads as nil
	if val == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrRecordNotFound, addr)
	}
	return common.CopyBytes(val), nil
}

func (s *State) write(addr address.Address, payload []byte, flag uint32) error {
	if len(payload) == 0 {
		return ErrEmptyRecord
	}
	s.records[addr] = common.CopyBytes(payload)
	s.modified[addr] |= flag
	return nil
}

// Read returns the payload stored at addr, or types.ErrRecordNotFound.
func (s *State) Read(addr address.Address) ([]byte, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.read(addr)
}

// Create stores payload at addr only if nothing is stored there yet.
func (s *State) Create(addr address.Address, payload []byte) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	_, err := s.read(addr)
	if err == nil {
		return fmt.Errorf("%w: %s", types.ErrRecordExists, addr)
	}
	if !errors.Is(err, types.ErrRecordNotFound) {
		return err
	}
	return s.write(addr, payload, ModifiedFlagNew)
}

// Mutate replaces the payload at addr with fn's result. The record must
// exist. Nothing is written when fn fails.
func (s *State) Mutate(addr address.Address, fn func(old []byte) ([]byte, error)) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	old, err := s.read(addr)
	if err != nil {
		return err
	}
	payload, err := fn(old)
	if err != nil {
		return err
	}
	return s.write(addr, payload, ModifiedFlagMod)
}

// Modified returns the addresses written by this overlay, sorted.
func (s *State) Modified() []address.Address {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.sortedModified()
}

func (s *State) sortedModified() []address.Address {
	addrs := make([]address.Address, 0, len(s.modified))
	for addr := range s.modified {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return string(addrs[i][:]) < string(addrs[j][:])
	})
	return addrs
}

// Update writes the header and every modified record into the working tree
// and returns the resulting app hash.
func (s *State) Update() (h common.Hash, err error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	var val []byte
	val, err = rlp.EncodeToBytes(s.header)
	if err != nil {
		return
	}
	_, err = s.db.Set([]byte(KeyState), val)
	if err != nil {
		return
	}

	for _, addr := range s.sortedModified() {
		_, err = s.db.Set(recordKey(addr), s.records[addr])
		if err != nil {
			return
		}
	}
	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modified = make(map[address.Address]uint32)
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}

	s.dbVer = ver
	h = s.calcHash(hash, true)

	return
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

func (s *State) SetGenesis(g *types.AppGenesis) {
	s.header.ProgramID = g.ProgramID
	s.header.RequireRegistration = g.RequireRegistration
}

func (s *State) SetBlockTime(t time.Time) {
	if t.Unix() > 0 {
		s.header.BlockTime = uint64(t.Unix())
	}
}

// BlockTime is the unix time of the block the state belongs to.
func (s *State) BlockTime() int64 {
	return int64(s.header.BlockTime)
}

func (s *State) ProgramID() address.Address {
	return s.header.ProgramID
}

func (s *State) RequireRegistration() bool {
	return s.header.RequireRegistration
}
