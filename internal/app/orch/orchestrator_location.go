package orch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/FamilyShare/internal/core"
	"github.com/dkeye/FamilyShare/internal/domain"
	"github.com/dkeye/FamilyShare/internal/metrics"
	"github.com/dkeye/FamilyShare/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

var validate = validator.New()

// Position is a reported fix before it becomes a sample.
type Position struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
	Accuracy  float64 `json:"accuracy" validate:"gte=0"`
}

func (p Position) check() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidPayload, err)
	}
	return nil
}

// SubmitLocation records a fix from a joined connection and fans it out
// to the family. Persisting and broadcasting run side by side; a storage
// failure is logged and never reaches other members.
func (o *Orchestrator) SubmitLocation(ctx context.Context, id core.ConnID, pos Position) (domain.LocationSample, error) {
	ident, ok := o.Registry.IdentityOf(id)
	if !ok {
		return domain.LocationSample{}, core.ErrNotJoined
	}
	if err := pos.check(); err != nil {
		return domain.LocationSample{}, err
	}
	if !o.Limiter.Allow(ident.UserID) {
		return domain.LocationSample{}, core.ErrRateLimited
	}

	sample := domain.NewLocationSample(ident.UserID, pos.Latitude, pos.Longitude, pos.Accuracy, time.Now())
	except := id
	if o.Options.EchoLocation {
		except = ""
	}
	o.publishLocation(ctx, ident.FamilyID, except, sample)
	return sample, nil
}

// SyncLocation stores a fix sent over plain HTTP by a client that has no
// live socket, then fans it out to whoever of the family is online. A user
// missing from the directory is still stored; only the fan-out is skipped.
func (o *Orchestrator) SyncLocation(ctx context.Context, uid domain.UserID, pos Position, ts time.Time) (domain.LocationSample, error) {
	if err := pos.check(); err != nil {
		return domain.LocationSample{}, err
	}

	lctx, cancel := context.WithTimeout(ctx, o.Options.PersistTimeout)
	member, err := o.Store.Member(lctx, uid)
	cancel()
	known := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return domain.LocationSample{}, fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}
	if !o.Limiter.Allow(uid) {
		return domain.LocationSample{}, core.ErrRateLimited
	}

	sample := domain.NewLocationSample(uid, pos.Latitude, pos.Longitude, pos.Accuracy, ts)
	if !known {
		log.Debug().Str("module", "orch").Str("user", string(uid)).Msg("sync from unknown member, not broadcast")
		o.persist(ctx, sample)
		return sample, nil
	}
	o.publishLocation(ctx, member.FamilyID, "", sample)
	return sample, nil
}

func (o *Orchestrator) publishLocation(ctx context.Context, fid domain.FamilyID, except core.ConnID, sample domain.LocationSample) {
	var wg conc.WaitGroup
	wg.Go(func() {
		o.persist(ctx, sample)
	})
	wg.Go(func() {
		o.broadcast(fid, except, core.EventLocationUpdate, core.NewLocationUpdate(sample))
	})
	wg.Wait()
}

func (o *Orchestrator) persist(ctx context.Context, sample domain.LocationSample) {
	// detached so a client hanging up does not abort the write
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.Options.PersistTimeout)
	defer cancel()

	start := time.Now()
	err := o.Store.AppendLocation(pctx, sample)
	metrics.PersistLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PersistFailures.Inc()
		log.Error().Err(fmt.Errorf("%w: %v", core.ErrPersistence, err)).Str("module", "orch").
			Str("user", string(sample.UserID)).Str("sample", sample.ID).Msg("append location")
	}
}

// MemberLocations answers get_member_locations for the caller's family.
func (o *Orchestrator) MemberLocations(ctx context.Context, id core.ConnID) ([]domain.MemberLocation, error) {
	ident, ok := o.Registry.IdentityOf(id)
	if !ok {
		return nil, core.ErrNotJoined
	}
	return o.GetLatestPerMember(ctx, ident.FamilyID)
}

// GetLatestPerMember lists each known member with their newest sample.
func (o *Orchestrator) GetLatestPerMember(ctx context.Context, fid domain.FamilyID) ([]domain.MemberLocation, error) {
	lctx, cancel := context.WithTimeout(ctx, o.Options.PersistTimeout)
	defer cancel()
	locs, err := o.Store.LatestLocationsByFamily(lctx, fid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}
	return locs, nil
}

// History returns up to limit samples of a user, newest first.
func (o *Orchestrator) History(ctx context.Context, uid domain.UserID, limit int) ([]domain.LocationSample, error) {
	lctx, cancel := context.WithTimeout(ctx, o.Options.PersistTimeout)
	defer cancel()
	return o.Store.LocationHistory(lctx, uid, limit)
}

func (o *Orchestrator) Latest(ctx context.Context, uid domain.UserID) (domain.LocationSample, error) {
	lctx, cancel := context.WithTimeout(ctx, o.Options.PersistTimeout)
	defer cancel()
	return o.Store.LatestLocation(lctx, uid)
}

func (o *Orchestrator) FamilyMembers(ctx context.Context, fid domain.FamilyID) ([]domain.Member, error) {
	lctx, cancel := context.WithTimeout(ctx, o.Options.PersistTimeout)
	defer cancel()
	return o.Store.FamilyMembers(lctx, fid)
}

// Online lists user ids with at least one joined connection in the family.
func (o *Orchestrator) Online(fid domain.FamilyID) []domain.UserID {
	seen := make(map[domain.UserID]struct{})
	out := make([]domain.UserID, 0)
	for _, p := range o.Registry.Peers(fid) {
		if _, dup := seen[p.Identity.UserID]; dup {
			continue
		}
		seen[p.Identity.UserID] = struct{}{}
		out = append(out, p.Identity.UserID)
	}
	return out
}
