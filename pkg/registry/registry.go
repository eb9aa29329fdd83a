/*
Package registry implements a persistent record of contract deployments.

Addresses of deployed contracts are stored in a BoltDB file, one bucket per
chain ID, keyed by contract name. The registry is what lets the deployment
helpers attach to contracts deployed by earlier runs instead of deploying
fresh copies.
*/
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned when the requested record is not in the registry.
var ErrNotFound = errors.New("no such deployment record")

// Record describes one deployed contract on one network.
type Record struct {
	// Name is the artifact name of the contract, unique per network.
	Name string `json:"name"`
	// Address is where the contract lives.
	Address common.Address `json:"address"`
	// TxHash is the hash of the deployment transaction.
	TxHash common.Hash `json:"txHash"`
	// Block is the height the deployment was accepted at.
	Block uint64 `json:"block"`
	// Deployer is the account the deployment was sent from.
	Deployer common.Address `json:"deployer"`
	// DeployedAt is the local wall clock time of the deployment.
	DeployedAt time.Time `json:"deployedAt"`
	// Session groups records deployed by a single run.
	Session uuid.UUID `json:"session"`
}

// Registry is a deployment record store. It is safe for concurrent use, but
// the underlying file is locked exclusively while open.
type Registry struct {
	db *bbolt.DB
}

// Open opens or creates a registry file, creating missing path directories
// along the way.
func Open(path string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, fmt.Errorf("could not create registry dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open registry: %w", err)
	}
	return &Registry{db: db}, nil
}

// Close releases the registry file.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Put stores the record under its name for the given chain, overwriting any
// previous deployment of the same contract.
func (r *Registry) Put(chainID *big.Int, rec Record) error {
	if rec.Name == "" {
		return errors.New("record has no name")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName(chainID))
		if err != nil {
			return fmt.Errorf("could not create chain bucket: %w", err)
		}
		return b.Put([]byte(rec.Name), data)
	})
}

// Get returns the record of the named contract on the given chain.
func (r *Registry) Get(chainID *big.Int, name string) (Record, error) {
	var rec Record
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName(chainID))
		if b == nil {
			return ErrNotFound
		}
		data := b.Get([]byte(name))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &rec)
	})
	return rec, err
}

// List returns all records of the given chain ordered by contract name.
func (r *Registry) List(chainID *big.Int) ([]Record, error) {
	var recs []Record
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName(chainID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupted record %s: %w", k, err)
			}
			recs = append(recs, rec)
			return nil
		})
	})
	return recs, err
}

// Delete removes the record of the named contract on the given chain.
func (r *Registry) Delete(chainID *big.Int, name string) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName(chainID))
		if b == nil || b.Get([]byte(name)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(name))
	})
}

// Chain buckets are keyed by decimal chain ID.
func bucketName(chainID *big.Int) []byte {
	return []byte(chainID.String())
}
