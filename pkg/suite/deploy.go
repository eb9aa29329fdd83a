package suite

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/personae-labs/inft-go/config"
	"github.com/personae-labs/inft-go/pkg/token"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Suite bundles handles for the protocol contracts rolled out by Deploy or
// bound by Attach. Drop and Staking stay nil unless enabled by the
// deployment configuration (or listed in the attached address set).
type Suite struct {
	ALI     *token.ALI
	Pod     *token.Pod
	INFT    *token.INFT
	Drop    *token.Drop
	Staking *token.Staking
}

// Addresses returns the suite contract addresses keyed by contract name.
// Contracts missing from the suite are not listed.
func (s *Suite) Addresses() map[string]common.Address {
	addrs := make(map[string]common.Address)
	if s.ALI != nil {
		addrs[token.ALIContract] = s.ALI.Address()
	}
	if s.Pod != nil {
		addrs[token.PodContract] = s.Pod.Address()
	}
	if s.INFT != nil {
		addrs[token.INFTContract] = s.INFT.Address()
	}
	if s.Drop != nil {
		addrs[token.DropContract] = s.Drop.Address()
	}
	if s.Staking != nil {
		addrs[token.StakingContract] = s.Staking.Address()
	}
	return addrs
}

// writer returns the admin interface of the named suite contract.
func (s *Suite) writer(name string) (*token.RBACWriter, error) {
	switch name {
	case token.ALIContract:
		if s.ALI != nil {
			return &s.ALI.RBACWriter, nil
		}
	case token.PodContract:
		if s.Pod != nil {
			return &s.Pod.RBACWriter, nil
		}
	case token.INFTContract:
		if s.INFT != nil {
			return &s.INFT.RBACWriter, nil
		}
	case token.DropContract:
		if s.Drop != nil {
			return &s.Drop.RBACWriter, nil
		}
	case token.StakingContract:
		if s.Staking != nil {
			return &s.Staking.RBACWriter, nil
		}
	default:
		return nil, fmt.Errorf("unknown suite contract %q", name)
	}
	return nil, fmt.Errorf("%s is not part of the suite", name)
}

// operator resolves a grant operator: a suite contract name gives that
// contract's address, anything else must be a plain hex address.
func (s *Suite) operator(name string) (common.Address, error) {
	if addr, ok := s.Addresses()[name]; ok {
		return addr, nil
	}
	if common.IsHexAddress(name) {
		return common.HexToAddress(name), nil
	}
	return common.Address{}, fmt.Errorf("operator %q is neither a suite contract nor an address", name)
}

// Deploy rolls out the contract suite per cfg. ALI and Pod go out first,
// they are independent, then the contracts built on top of them; contracts
// known to the registry are attached instead of redeployed. Configured
// wiring (ALI feature overrides and role grants) is sent as one batch and
// confirmed before Deploy returns.
func (d *Deployer) Deploy(ctx context.Context, cfg config.Config) (*Suite, error) {
	var holder common.Address
	if cfg.Deploy.ALI.InitialHolder != "" {
		holder = common.HexToAddress(cfg.Deploy.ALI.InitialHolder)
	}
	d.log.Info("deploying contract suite",
		zap.String("network", cfg.Network.Name),
		zap.Stringer("deployer", d.actor.Sender()),
		zap.Stringer("session", d.session))

	var (
		s        Suite
		aliFresh bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		s.ALI, aliFresh, err = d.ensureALI(gctx, common.Address{}, holder)
		return err
	})
	g.Go(func() error {
		var err error
		s.Pod, _, err = d.ensurePod(gctx, common.Address{}, cfg.Deploy.Pod.Name, cfg.Deploy.Pod.Symbol)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		s.INFT, _, err = d.ensureINFT(gctx, common.Address{}, s.ALI)
		return err
	})
	if cfg.Deploy.Drop.Enable {
		g.Go(func() error {
			var err error
			s.Drop, _, err = d.ensureDrop(gctx, common.Address{}, s.Pod)
			return err
		})
	}
	if cfg.Deploy.Staking.Enable {
		g.Go(func() error {
			var err error
			s.Staking, _, err = d.ensureStaking(gctx, common.Address{}, s.Pod)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var txs []*types.Transaction
	if aliFresh && !cfg.Deploy.ALI.Features.Equal(DefaultALIFeatures) {
		// Configured features win over the deployment default.
		tx, err := s.ALI.UpdateFeatures(ctx, cfg.Deploy.ALI.Features)
		if err != nil {
			return nil, fmt.Errorf("applying configured ALI features: %w", err)
		}
		d.log.Info("features configured",
			zap.String("name", token.ALIContract),
			zap.Stringer("features", cfg.Deploy.ALI.Features))
		txs = append(txs, tx)
	}
	for _, gr := range cfg.Deploy.Grants {
		tx, err := d.grant(ctx, &s, gr)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if len(txs) > 0 {
		if _, err := d.actor.WaitAll(ctx, txs...); err != nil {
			return nil, fmt.Errorf("awaiting wiring transactions: %w", err)
		}
	}

	d.log.Info("suite ready", zap.Int("contracts", len(s.Addresses())))
	return &s, nil
}

// grant creates and sends a transaction applying one configured role grant.
func (d *Deployer) grant(ctx context.Context, s *Suite, g config.Grant) (*types.Transaction, error) {
	target, err := s.writer(g.Contract)
	if err != nil {
		return nil, fmt.Errorf("applying grant: %w", err)
	}
	operator, err := s.operator(g.Operator)
	if err != nil {
		return nil, fmt.Errorf("applying grant on %s: %w", g.Contract, err)
	}
	tx, err := target.UpdateRole(ctx, operator, g.Role)
	if err != nil {
		return nil, fmt.Errorf("granting %s on %s to %s: %w", g.Role, g.Contract, g.Operator, err)
	}
	d.log.Info("role granted",
		zap.String("contract", g.Contract),
		zap.String("operator", g.Operator),
		zap.Stringer("role", g.Role))
	return tx, nil
}

// Attach binds suite handles to already deployed contracts without sending
// any transactions. Each address must have code on the chain. Names missing
// from addrs leave the matching handle nil.
func (d *Deployer) Attach(ctx context.Context, addrs map[string]common.Address) (*Suite, error) {
	var s Suite
	for name, addr := range addrs {
		switch name {
		case token.ALIContract:
			s.ALI = token.NewALI(d.actor, addr)
		case token.PodContract:
			s.Pod = token.NewPod(d.actor, addr)
		case token.INFTContract:
			s.INFT = token.NewINFT(d.actor, addr)
		case token.DropContract:
			s.Drop = token.NewDrop(d.actor, addr)
		case token.StakingContract:
			s.Staking = token.NewStaking(d.actor, addr)
		default:
			return nil, fmt.Errorf("unknown suite contract %q", name)
		}
		code, err := d.actor.CodeAt(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("checking code of %s: %w", name, err)
		}
		if len(code) == 0 {
			return nil, fmt.Errorf("no code at %s for %s", addr, name)
		}
		d.logAttached(name, addr)
	}
	return &s, nil
}
