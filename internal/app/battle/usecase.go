package battle

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"imperialism/internal/app/ports"
	"imperialism/internal/app/shared/gamestate"
	"imperialism/internal/app/shared/universe"
	"imperialism/internal/domain/conquest"
)

var ErrInvalidRequest = errors.New("invalid battle request")

type UseCase struct {
	TxManager ports.TxManager
	Games     ports.GameRepository
	Battles   ports.BattleRepository
	Universe  universe.Universe
	Metrics   ports.BattleMetrics
	Now       func() time.Time
	NewRand   func() conquest.Rand
}

// Propose draws the next matchup and persists it as the pending battle.
func (u UseCase) Propose(ctx context.Context, req ProposeRequest) (Response, error) {
	gameID := strings.TrimSpace(req.GameID)
	if gameID == "" {
		return Response{}, ErrInvalidRequest
	}
	var out Response
	err := u.run(ctx, ports.BattleOpPropose, func(txCtx context.Context) error {
		loaded, err := u.load(txCtx, gameID)
		if err != nil {
			return err
		}
		ev, err := loaded.Engine.Propose()
		if err != nil {
			return err
		}
		seq := loaded.NextSeq()
		if err := u.Battles.Append(txCtx, gameID, []ports.BattleRecord{{
			Seq:        seq,
			Attacker:   ev.Attacker,
			Defender:   ev.Defender,
			ProposedAt: u.now(),
		}}); err != nil {
			return err
		}
		version, err := u.bump(txCtx, loaded)
		if err != nil {
			return err
		}
		out = response(loaded, version)
		out.Seq = seq
		out.Battle = &ev
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	return out, nil
}

// Resolve settles the pending battle. Attacker and defender must repeat the
// pending matchup so a stale client cannot resolve a different battle.
func (u UseCase) Resolve(ctx context.Context, req ResolveRequest) (Response, error) {
	gameID := strings.TrimSpace(req.GameID)
	if gameID == "" || req.Winner == "" {
		return Response{}, ErrInvalidRequest
	}
	var out Response
	err := u.run(ctx, ports.BattleOpResolve, func(txCtx context.Context) error {
		loaded, err := u.load(txCtx, gameID)
		if err != nil {
			return err
		}
		ev := conquest.BattleEvent{Attacker: req.Attacker, Defender: req.Defender}
		if pending, ok := loaded.Engine.Pending(); ok && ev.Attacker == "" && ev.Defender == "" {
			ev = pending
		}
		if _, err := loaded.Engine.Resolve(ev, req.Winner); err != nil {
			return err
		}
		if err := u.Battles.Resolve(txCtx, gameID, loaded.PendingSeq, req.Winner, u.now()); err != nil {
			return err
		}
		version, err := u.bump(txCtx, loaded)
		if err != nil {
			return err
		}
		log := loaded.Engine.Log()
		resolved := log[len(log)-1]
		out = response(loaded, version)
		out.Seq = loaded.PendingSeq
		out.Battle = &resolved
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	return out, nil
}

// Abandon discards the pending battle. Without one it is a no-op and the
// version does not move.
func (u UseCase) Abandon(ctx context.Context, req AbandonRequest) (Response, error) {
	gameID := strings.TrimSpace(req.GameID)
	if gameID == "" {
		return Response{}, ErrInvalidRequest
	}
	var out Response
	err := u.run(ctx, ports.BattleOpAbandon, func(txCtx context.Context) error {
		loaded, err := u.load(txCtx, gameID)
		if err != nil {
			return err
		}
		if _, ok := loaded.Engine.Pending(); !ok {
			out = response(loaded, loaded.Game.Version)
			return nil
		}
		loaded.Engine.Abandon()
		if err := u.Battles.DeletePending(txCtx, gameID); err != nil {
			return err
		}
		version, err := u.bump(txCtx, loaded)
		if err != nil {
			return err
		}
		out = response(loaded, version)
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	return out, nil
}

func (u UseCase) run(ctx context.Context, op ports.BattleOp, fn func(ctx context.Context) error) error {
	err := u.TxManager.RunInTx(ctx, fn)
	if u.Metrics == nil {
		return err
	}
	switch {
	case err == nil:
		u.Metrics.RecordSuccess(op)
	case errors.Is(err, ports.ErrConflict):
		u.Metrics.RecordConflict(op)
	default:
		u.Metrics.RecordFailure(op)
	}
	return err
}

func (u UseCase) load(ctx context.Context, gameID string) (gamestate.Loaded, error) {
	rnd := u.NewRand
	if rnd == nil {
		rnd = defaultRand
	}
	return gamestate.Load(ctx, u.Games, u.Battles, u.Universe, gameID, rnd())
}

func (u UseCase) bump(ctx context.Context, loaded gamestate.Loaded) (int64, error) {
	next := loaded.Game.Version + 1
	if err := u.Games.SaveVersion(ctx, loaded.Game.ID, loaded.Game.Version, next); err != nil {
		return 0, err
	}
	return next, nil
}

func (u UseCase) now() time.Time {
	if u.Now == nil {
		return time.Now().UTC()
	}
	return u.Now().UTC()
}

func response(loaded gamestate.Loaded, version int64) Response {
	return Response{
		GameID:  loaded.Game.ID,
		Version: version,
		Counts:  loaded.Engine.Territory().Counts(),
		Outcome: loaded.Engine.Outcome(),
	}
}

func defaultRand() conquest.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
