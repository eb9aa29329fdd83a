/*
Package suite deploys the iNFT protocol contract suite.

Deployer is the entry point: per-contract Ensure helpers deploy a contract or
attach to an already deployed one (explicit address first, then the
deployment registry), wiring the standard permissions on fresh deployments.
Deploy rolls out the whole suite in dependency order per configuration,
Attach binds handles without touching the chain state.
*/
package suite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/personae-labs/inft-go/pkg/access"
	"github.com/personae-labs/inft-go/pkg/artifact"
	"github.com/personae-labs/inft-go/pkg/chain"
	"github.com/personae-labs/inft-go/pkg/registry"
	"github.com/personae-labs/inft-go/pkg/token"
	"go.uber.org/zap"
)

// Pod metadata used when the pod is deployed implicitly as a dependency.
const (
	DefaultPodName   = "Personality Pod"
	DefaultPodSymbol = "POD"
)

// Permissions wired on freshly deployed contracts. Attached contracts are
// never reconfigured.
var (
	// DefaultALIFeatures enables plain and on-behalf ERC20 transfers.
	DefaultALIFeatures = access.Union(access.FeatureTransfers, access.FeatureTransfersOnBehalf)
	// DefaultStakingFeatures enables both staking directions.
	DefaultStakingFeatures = access.Union(access.FeatureStaking, access.FeatureUnstaking)
	// DropMintingRole lets the airdrop mint pods on redemption.
	DropMintingRole = access.RoleTokenCreator
)

// ArtifactSource provides compiled contract artifacts by name.
// *artifact.Store implements it.
type ArtifactSource interface {
	Artifact(name string) (*artifact.Artifact, error)
}

// Deployer deploys and wires suite contracts on behalf of one account.
type Deployer struct {
	actor     *chain.Actor
	artifacts ArtifactSource
	log       *zap.Logger
	registry  *registry.Registry
	session   uuid.UUID
}

// Option allows to configure the Deployer.
type Option func(*Deployer)

// WithRegistry makes the Deployer record deployments in reg and attach to
// contracts recorded by previous runs. The Deployer does not close it.
func WithRegistry(reg *registry.Registry) Option {
	return func(d *Deployer) { d.registry = reg }
}

// WithLogger makes the Deployer log its progress via log.
func WithLogger(log *zap.Logger) Option {
	return func(d *Deployer) { d.log = log }
}

// New returns a Deployer sending transactions via actor and reading compiled
// contracts from artifacts. Every Deployer gets a fresh session ID shared by
// the registry records of its deployments.
func New(actor *chain.Actor, artifacts ArtifactSource, opts ...Option) *Deployer {
	d := &Deployer{
		actor:     actor,
		artifacts: artifacts,
		log:       zap.NewNop(),
		session:   uuid.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// EnsureALI returns a handle for the AliERC20 token: the one at addr when
// not zero, the registered one when a usable registry record exists,
// otherwise a freshly deployed one with the whole supply minted to
// initialHolder (the deployer account when zero) and DefaultALIFeatures
// enabled. Attaching performs no transactions.
func (d *Deployer) EnsureALI(ctx context.Context, addr, initialHolder common.Address) (*token.ALI, error) {
	ali, _, err := d.ensureALI(ctx, addr, initialHolder)
	return ali, err
}

func (d *Deployer) ensureALI(ctx context.Context, addr, initialHolder common.Address) (*token.ALI, bool, error) {
	if addr != (common.Address{}) {
		d.logAttached(token.ALIContract, addr)
		return token.NewALI(d.actor, addr), false, nil
	}
	if reg, ok, err := d.lookup(ctx, token.ALIContract); err != nil {
		return nil, false, err
	} else if ok {
		return token.NewALI(d.actor, reg), false, nil
	}

	art, err := d.artifacts.Artifact(token.ALIContract)
	if err != nil {
		return nil, false, err
	}
	if initialHolder == (common.Address{}) {
		initialHolder = d.actor.Sender()
	}
	ali, tx, err := token.DeployALI(ctx, d.actor, art, initialHolder)
	if err != nil {
		return nil, false, fmt.Errorf("deploying %s: %w", token.ALIContract, err)
	}
	if err := d.deployed(ctx, token.ALIContract, ali.Address(), tx); err != nil {
		return nil, false, err
	}

	wire, err := ali.UpdateFeatures(ctx, DefaultALIFeatures)
	if err != nil {
		return nil, false, fmt.Errorf("enabling %s transfers: %w", token.ALIContract, err)
	}
	if err := d.confirm(ctx, "enable ALI transfers", wire); err != nil {
		return nil, false, err
	}
	return ali, true, nil
}

// EnsurePod returns a handle for the PersonalityPod token, deploying a fresh
// one with the given ERC721 name and symbol when neither addr nor the
// registry points at an existing deployment. No permissions are wired, the
// deployer holds full privileges anyway.
func (d *Deployer) EnsurePod(ctx context.Context, addr common.Address, name, symbol string) (*token.Pod, error) {
	pod, _, err := d.ensurePod(ctx, addr, name, symbol)
	return pod, err
}

func (d *Deployer) ensurePod(ctx context.Context, addr common.Address, name, symbol string) (*token.Pod, bool, error) {
	if addr != (common.Address{}) {
		d.logAttached(token.PodContract, addr)
		return token.NewPod(d.actor, addr), false, nil
	}
	if reg, ok, err := d.lookup(ctx, token.PodContract); err != nil {
		return nil, false, err
	} else if ok {
		return token.NewPod(d.actor, reg), false, nil
	}

	art, err := d.artifacts.Artifact(token.PodContract)
	if err != nil {
		return nil, false, err
	}
	pod, tx, err := token.DeployPod(ctx, d.actor, art, name, symbol)
	if err != nil {
		return nil, false, fmt.Errorf("deploying %s: %w", token.PodContract, err)
	}
	if err := d.deployed(ctx, token.PodContract, pod.Address(), tx); err != nil {
		return nil, false, err
	}
	return pod, true, nil
}

// EnsureINFT returns a handle for the IntelligentNFT wrapper bound to the
// given ALI token. A nil ali deploys (or attaches) the token first via
// EnsureALI defaults.
func (d *Deployer) EnsureINFT(ctx context.Context, addr common.Address, ali *token.ALI) (*token.INFT, error) {
	inft, _, err := d.ensureINFT(ctx, addr, ali)
	return inft, err
}

func (d *Deployer) ensureINFT(ctx context.Context, addr common.Address, ali *token.ALI) (*token.INFT, bool, error) {
	if addr != (common.Address{}) {
		d.logAttached(token.INFTContract, addr)
		return token.NewINFT(d.actor, addr), false, nil
	}
	if reg, ok, err := d.lookup(ctx, token.INFTContract); err != nil {
		return nil, false, err
	} else if ok {
		return token.NewINFT(d.actor, reg), false, nil
	}

	if ali == nil {
		var err error
		if ali, _, err = d.ensureALI(ctx, common.Address{}, common.Address{}); err != nil {
			return nil, false, err
		}
	}
	art, err := d.artifacts.Artifact(token.INFTContract)
	if err != nil {
		return nil, false, err
	}
	inft, tx, err := token.DeployINFT(ctx, d.actor, art, ali.Address())
	if err != nil {
		return nil, false, fmt.Errorf("deploying %s: %w", token.INFTContract, err)
	}
	if err := d.deployed(ctx, token.INFTContract, inft.Address(), tx); err != nil {
		return nil, false, err
	}
	return inft, true, nil
}

// EnsureDrop returns a handle for the PersonalityDrop airdrop targeting the
// given pod. A nil pod deploys (or attaches) one first with the default
// metadata. Fresh deployments get DropMintingRole on the pod so that
// redemptions can mint.
func (d *Deployer) EnsureDrop(ctx context.Context, addr common.Address, pod *token.Pod) (*token.Drop, error) {
	drop, _, err := d.ensureDrop(ctx, addr, pod)
	return drop, err
}

func (d *Deployer) ensureDrop(ctx context.Context, addr common.Address, pod *token.Pod) (*token.Drop, bool, error) {
	if addr != (common.Address{}) {
		d.logAttached(token.DropContract, addr)
		return token.NewDrop(d.actor, addr), false, nil
	}
	if reg, ok, err := d.lookup(ctx, token.DropContract); err != nil {
		return nil, false, err
	} else if ok {
		return token.NewDrop(d.actor, reg), false, nil
	}

	if pod == nil {
		var err error
		if pod, _, err = d.ensurePod(ctx, common.Address{}, DefaultPodName, DefaultPodSymbol); err != nil {
			return nil, false, err
		}
	}
	art, err := d.artifacts.Artifact(token.DropContract)
	if err != nil {
		return nil, false, err
	}
	drop, tx, err := token.DeployDrop(ctx, d.actor, art, pod.Address())
	if err != nil {
		return nil, false, fmt.Errorf("deploying %s: %w", token.DropContract, err)
	}
	if err := d.deployed(ctx, token.DropContract, drop.Address(), tx); err != nil {
		return nil, false, err
	}

	wire, err := pod.UpdateRole(ctx, drop.Address(), DropMintingRole)
	if err != nil {
		return nil, false, fmt.Errorf("granting pod minting to %s: %w", token.DropContract, err)
	}
	if err := d.confirm(ctx, "grant pod minting to drop", wire); err != nil {
		return nil, false, err
	}
	return drop, true, nil
}

// EnsureStaking returns a handle for the NFTStaking contract bound to the
// given pod. A nil pod deploys (or attaches) one first with the default
// metadata. Fresh deployments get DefaultStakingFeatures enabled.
func (d *Deployer) EnsureStaking(ctx context.Context, addr common.Address, pod *token.Pod) (*token.Staking, error) {
	staking, _, err := d.ensureStaking(ctx, addr, pod)
	return staking, err
}

func (d *Deployer) ensureStaking(ctx context.Context, addr common.Address, pod *token.Pod) (*token.Staking, bool, error) {
	if addr != (common.Address{}) {
		d.logAttached(token.StakingContract, addr)
		return token.NewStaking(d.actor, addr), false, nil
	}
	if reg, ok, err := d.lookup(ctx, token.StakingContract); err != nil {
		return nil, false, err
	} else if ok {
		return token.NewStaking(d.actor, reg), false, nil
	}

	if pod == nil {
		var err error
		if pod, _, err = d.ensurePod(ctx, common.Address{}, DefaultPodName, DefaultPodSymbol); err != nil {
			return nil, false, err
		}
	}
	art, err := d.artifacts.Artifact(token.StakingContract)
	if err != nil {
		return nil, false, err
	}
	staking, tx, err := token.DeployStaking(ctx, d.actor, art, pod.Address())
	if err != nil {
		return nil, false, fmt.Errorf("deploying %s: %w", token.StakingContract, err)
	}
	if err := d.deployed(ctx, token.StakingContract, staking.Address(), tx); err != nil {
		return nil, false, err
	}

	wire, err := staking.UpdateFeatures(ctx, DefaultStakingFeatures)
	if err != nil {
		return nil, false, fmt.Errorf("enabling staking features: %w", err)
	}
	if err := d.confirm(ctx, "enable staking features", wire); err != nil {
		return nil, false, err
	}
	return staking, true, nil
}

// lookup resolves a contract address via the deployment registry. Records
// pointing at addresses without code are reported stale and skipped, the
// chain was reset since they were written.
func (d *Deployer) lookup(ctx context.Context, name string) (common.Address, bool, error) {
	if d.registry == nil {
		return common.Address{}, false, nil
	}
	rec, err := d.registry.Get(d.actor.ChainID(), name)
	if errors.Is(err, registry.ErrNotFound) {
		return common.Address{}, false, nil
	}
	if err != nil {
		return common.Address{}, false, fmt.Errorf("reading registry record of %s: %w", name, err)
	}
	code, err := d.actor.CodeAt(ctx, rec.Address)
	if err != nil {
		return common.Address{}, false, fmt.Errorf("checking code of registered %s: %w", name, err)
	}
	if len(code) == 0 {
		d.log.Warn("registry record is stale, deploying fresh",
			zap.String("name", name),
			zap.Stringer("address", rec.Address))
		return common.Address{}, false, nil
	}
	d.logAttached(name, rec.Address)
	return rec.Address, true, nil
}

// deployed awaits the deployment receipt, logs the result and records it in
// the registry.
func (d *Deployer) deployed(ctx context.Context, name string, addr common.Address, tx *types.Transaction) error {
	r, err := d.actor.Wait(ctx, tx)
	if err != nil {
		return fmt.Errorf("deploying %s: %w", name, err)
	}
	d.log.Info("contract deployed",
		zap.String("name", name),
		zap.Stringer("address", addr),
		zap.Stringer("tx", r.TxHash),
		zap.Uint64("block", r.BlockNumber.Uint64()),
		zap.Uint64("gasUsed", r.GasUsed))
	if d.registry == nil {
		return nil
	}
	err = d.registry.Put(d.actor.ChainID(), registry.Record{
		Name:       name,
		Address:    addr,
		TxHash:     r.TxHash,
		Block:      r.BlockNumber.Uint64(),
		Deployer:   d.actor.Sender(),
		DeployedAt: time.Now().UTC(),
		Session:    d.session,
	})
	if err != nil {
		return fmt.Errorf("recording %s deployment: %w", name, err)
	}
	return nil
}

// confirm awaits a wiring transaction receipt.
func (d *Deployer) confirm(ctx context.Context, step string, tx *types.Transaction) error {
	r, err := d.actor.Wait(ctx, tx)
	if err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	d.log.Info("wiring applied",
		zap.String("step", step),
		zap.Stringer("tx", r.TxHash),
		zap.Uint64("gasUsed", r.GasUsed))
	return nil
}

func (d *Deployer) logAttached(name string, addr common.Address) {
	d.log.Info("attached to contract",
		zap.String("name", name),
		zap.Stringer("address", addr))
}
