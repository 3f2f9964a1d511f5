package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/stocksync/internal/actorctx"
	"github.com/smallbiznis/stocksync/internal/alert"
	"github.com/smallbiznis/stocksync/internal/clock"
	commercedomain "github.com/smallbiznis/stocksync/internal/commerce/domain"
	"github.com/smallbiznis/stocksync/internal/config"
	"github.com/smallbiznis/stocksync/internal/events"
	ledgerdomain "github.com/smallbiznis/stocksync/internal/ledger/domain"
	"github.com/smallbiznis/stocksync/internal/observability/metrics"
	"github.com/smallbiznis/stocksync/internal/remote"
	"github.com/smallbiznis/stocksync/internal/resolve"
	syncdomain "github.com/smallbiznis/stocksync/internal/sync/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Service reconciles the local stock ledger with the remote inventory
// service.
type Service struct {
	cfg      Config
	repo     ledgerdomain.Repository
	commerce commercedomain.Store
	remote   remote.InventoryClient
	monitor  *alert.Monitor
	outbox   *events.Outbox
	clock    clock.Clock
	log      *zap.Logger
	metrics  *metrics.SyncMetrics
}

// Config is the slice of service configuration the engine needs.
type Config struct {
	Direction   config.SyncDirection
	Policy      config.ConflictPolicy
	BatchSize   int
	SyncOnOrder bool
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.Direction == "" {
		c.Direction = config.DirectionBoth
	}
	if c.Policy == "" {
		c.Policy = config.PolicySourceWins
	}
	return c
}

// Params collects the engine's dependencies.
type Params struct {
	fx.In

	Config   Config
	Repo     ledgerdomain.Repository
	Commerce commercedomain.Store
	Remote   remote.InventoryClient
	Monitor  *alert.Monitor
	Outbox   *events.Outbox `optional:"true"`
	Clock    clock.Clock
	Log      *zap.Logger
}

func New(p Params) syncdomain.Service {
	return &Service{
		cfg:      p.Config.withDefaults(),
		repo:     p.Repo,
		commerce: p.Commerce,
		remote:   p.Remote,
		monitor:  p.Monitor,
		outbox:   p.Outbox,
		clock:    p.Clock,
		log:      p.Log.Named("sync.service"),
		metrics:  metrics.Sync(),
	}
}

// itemOutcome classifies one record's fate inside a full sync pass.
type itemOutcome int

const (
	itemUnchanged itemOutcome = iota
	itemUpdated
	itemSkipped
)

// SyncAll reconciles every linked record in stable batches. One bad
// item never aborts the run; batching stops at the first short page.
func (s *Service) SyncAll(ctx context.Context, trigger syncdomain.Trigger) (syncdomain.RunSummary, error) {
	summary := syncdomain.RunSummary{Trigger: trigger, StartedAt: s.clock.Now()}
	s.metrics.IncSyncRun(string(trigger))

	for page := 1; ; page++ {
		records, err := s.repo.ListLinked(ctx, page, s.cfg.BatchSize)
		if err != nil {
			summary.FinishedAt = s.clock.Now()
			return summary, fmt.Errorf("list linked records: %w", err)
		}

		for i := range records {
			record := records[i]
			summary.Processed++
			outcome, err := s.reconcileRecord(ctx, &record)
			switch {
			case err != nil:
				summary.Failed++
				s.metrics.IncSyncItem("failed")
				s.log.Error("product sync failed",
					zap.Int64("product_id", record.ProductID),
					zap.Error(err))
				s.markError(ctx, record.ProductID)
			case outcome == itemUpdated:
				summary.Updated++
				s.metrics.IncSyncItem("updated")
			case outcome == itemSkipped:
				summary.Skipped++
				s.metrics.IncSyncItem("skipped")
			default:
				summary.Unchanged++
				s.metrics.IncSyncItem("unchanged")
			}
		}

		if len(records) < s.cfg.BatchSize {
			break
		}
	}

	summary.FinishedAt = s.clock.Now()
	s.metrics.ObserveSyncRun(summary.FinishedAt.Sub(summary.StartedAt))
	s.log.Info("full sync finished",
		zap.String("trigger", string(trigger)),
		zap.Int("processed", summary.Processed),
		zap.Int("updated", summary.Updated),
		zap.Int("failed", summary.Failed))
	s.publishRunEvent(ctx, summary)
	return summary, nil
}

// reconcileRecord picks the batch strategy from the configured sync
// direction: push-only installs never let a scheduled pass overwrite
// local stock.
func (s *Service) reconcileRecord(ctx context.Context, record *ledgerdomain.StockRecord) (itemOutcome, error) {
	if s.cfg.Direction == config.DirectionPush {
		return s.pushRecord(ctx, record)
	}
	return s.pullRecord(ctx, record)
}

// pullRecord applies one remote observation. Scheduled pulls are always
// remote-authoritative regardless of the configured policy.
func (s *Service) pullRecord(ctx context.Context, record *ledgerdomain.StockRecord) (itemOutcome, error) {
	remoteQty, err := s.remote.GetItemStock(ctx, *record.RemoteItemID)
	if err != nil {
		return itemUnchanged, err
	}

	decision := resolve.Resolve(record.LocalQuantity, remoteQty, resolve.PolicyRemoteWins, ledgerdomain.SourceRemote)
	if decision.Clamped {
		s.log.Warn("negative quantity clamped to zero",
			zap.Int64("product_id", record.ProductID),
			zap.Int("local", record.LocalQuantity),
			zap.Int("remote", remoteQty))
	}

	now := s.clock.Now()
	if !decision.PullRequired && remoteQty == record.RemoteQuantity {
		if record.SyncStatus != ledgerdomain.SyncStatusSynced {
			return itemUnchanged, s.repo.MarkSyncStatus(ctx, record.ProductID, ledgerdomain.SyncStatusSynced, now)
		}
		return itemUnchanged, nil
	}

	if decision.PullRequired {
		if err := s.commerce.SetStockQuantity(ctx, record.ProductID, decision.Winning); err != nil {
			return itemUnchanged, err
		}
	}

	err = s.repo.ApplyQuantity(ctx, ledgerdomain.QuantityUpdate{
		ProductID:      record.ProductID,
		ExpectedLocal:  record.LocalQuantity,
		LocalQuantity:  decision.Winning,
		RemoteQuantity: remoteQty,
		Status:         ledgerdomain.SyncStatusSynced,
		SyncedAt:       now,
	})
	if errors.Is(err, ledgerdomain.ErrStaleQuantity) {
		// Another job already moved the record; its write wins.
		s.log.Warn("concurrent ledger update, skipping",
			zap.Int64("product_id", record.ProductID))
		return itemSkipped, nil
	}
	if err != nil {
		return itemUnchanged, err
	}

	if decision.PullRequired {
		s.appendChange(ctx, record.ProductID, record.LocalQuantity, decision.Winning, ledgerdomain.SourceRemote)
		s.monitor.Evaluate(ctx, record.ProductID, s.productName(ctx, record.ProductID), decision.Winning)
	}
	if decision.PullRequired {
		return itemUpdated, nil
	}
	return itemUnchanged, nil
}

// pushRecord publishes the local quantity when the sides diverge. Local
// stock is never touched, so no change entry and no alert evaluation.
func (s *Service) pushRecord(ctx context.Context, record *ledgerdomain.StockRecord) (itemOutcome, error) {
	remoteQty, err := s.remote.GetItemStock(ctx, *record.RemoteItemID)
	if err != nil {
		return itemUnchanged, err
	}

	decision := resolve.Resolve(record.LocalQuantity, remoteQty, resolve.PolicyLocalWins, ledgerdomain.SourceLocal)
	now := s.clock.Now()
	if !decision.PushRequired && remoteQty == record.RemoteQuantity {
		if record.SyncStatus != ledgerdomain.SyncStatusSynced {
			return itemUnchanged, s.repo.MarkSyncStatus(ctx, record.ProductID, ledgerdomain.SyncStatusSynced, now)
		}
		return itemUnchanged, nil
	}

	if decision.PushRequired {
		if err := s.remote.PutItemStock(ctx, *record.RemoteItemID, decision.Winning); err != nil {
			return itemUnchanged, err
		}
	}

	err = s.repo.ApplyQuantity(ctx, ledgerdomain.QuantityUpdate{
		ProductID:      record.ProductID,
		ExpectedLocal:  record.LocalQuantity,
		LocalQuantity:  decision.Winning,
		RemoteQuantity: decision.Winning,
		Status:         ledgerdomain.SyncStatusSynced,
		SyncedAt:       now,
	})
	if errors.Is(err, ledgerdomain.ErrStaleQuantity) {
		s.log.Warn("concurrent ledger update, skipping",
			zap.Int64("product_id", record.ProductID))
		return itemSkipped, nil
	}
	if err != nil {
		return itemUnchanged, err
	}
	if decision.PushRequired {
		return itemUpdated, nil
	}
	return itemUnchanged, nil
}

// SyncProduct reconciles one product on demand. The local side is the
// triggering source, so under the configured policy a divergence pushes
// unless remote wins.
func (s *Service) SyncProduct(ctx context.Context, productID int64) error {
	record, err := s.repo.FindByProductID(ctx, productID)
	if errors.Is(err, ledgerdomain.ErrRecordNotFound) {
		record, err = s.adoptProduct(ctx, productID)
	}
	if err != nil {
		return err
	}
	if !record.Linked() {
		s.log.Warn("product not linked to remote item, skipping sync",
			zap.Int64("product_id", productID))
		s.metrics.IncSyncItem("skipped")
		return syncdomain.ErrNotLinked
	}

	localQty, err := s.commerce.StockQuantity(ctx, productID)
	if err != nil {
		s.markError(ctx, productID)
		return err
	}
	remoteQty, err := s.remote.GetItemStock(ctx, *record.RemoteItemID)
	if err != nil {
		s.markError(ctx, productID)
		return fmt.Errorf("%w: %w", syncdomain.ErrSyncFailed, err)
	}

	decision := resolve.Resolve(localQty, remoteQty, s.policy(), ledgerdomain.SourceLocal)
	if decision.Clamped {
		s.log.Warn("negative quantity clamped to zero",
			zap.Int64("product_id", productID),
			zap.Int("local", localQty),
			zap.Int("remote", remoteQty))
	}

	now := s.clock.Now()
	if decision.PushRequired {
		if err := s.remote.PutItemStock(ctx, *record.RemoteItemID, decision.Winning); err != nil {
			s.markError(ctx, productID)
			return fmt.Errorf("%w: %w", syncdomain.ErrSyncFailed, err)
		}
	}
	if decision.PullRequired {
		if err := s.commerce.SetStockQuantity(ctx, productID, decision.Winning); err != nil {
			s.markError(ctx, productID)
			return err
		}
	}

	err = s.repo.ApplyQuantity(ctx, ledgerdomain.QuantityUpdate{
		ProductID:      productID,
		ExpectedLocal:  record.LocalQuantity,
		LocalQuantity:  decision.Winning,
		RemoteQuantity: decision.Winning,
		Status:         ledgerdomain.SyncStatusSynced,
		SyncedAt:       now,
	})
	if err != nil && !errors.Is(err, ledgerdomain.ErrStaleQuantity) {
		return err
	}

	if record.LocalQuantity != decision.Winning {
		source := ledgerdomain.SourceLocal
		if decision.PullRequired {
			source = ledgerdomain.SourceRemote
		}
		s.appendChange(ctx, productID, record.LocalQuantity, decision.Winning, source)
	}

	s.monitor.Evaluate(ctx, productID, s.productName(ctx, productID), decision.Winning)
	return nil
}

// HandleStockChange reacts to a commerce-side quantity mutation. The
// push is not retried inline; a failed push self-heals on the next
// scheduled pass.
func (s *Service) HandleStockChange(ctx context.Context, productID int64, newQuantity int) error {
	if s.cfg.Direction == config.DirectionPull {
		s.log.Debug("local->remote sync disabled, ignoring stock change",
			zap.Int64("product_id", productID))
		return nil
	}
	if newQuantity < 0 {
		s.log.Warn("negative quantity clamped to zero",
			zap.Int64("product_id", productID),
			zap.Int("quantity", newQuantity))
		newQuantity = 0
	}

	record, err := s.repo.FindByProductID(ctx, productID)
	if errors.Is(err, ledgerdomain.ErrRecordNotFound) {
		record, err = s.adoptProduct(ctx, productID)
	}
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if record.LocalQuantity != newQuantity {
		s.appendChange(ctx, productID, record.LocalQuantity, newQuantity, ledgerdomain.SourceLocal)
	}

	// Write through to the products table so later reads of local stock
	// see the mutated quantity, not the pre-mutation value.
	if err := s.commerce.SetStockQuantity(ctx, productID, newQuantity); err != nil {
		s.markError(ctx, productID)
		return err
	}

	status := ledgerdomain.SyncStatusPending
	remoteQty := record.RemoteQuantity
	if record.Linked() {
		if err := s.remote.PutItemStock(ctx, *record.RemoteItemID, newQuantity); err != nil {
			s.log.Error("push to remote failed",
				zap.Int64("product_id", productID),
				zap.Int("quantity", newQuantity),
				zap.Error(err))
			status = ledgerdomain.SyncStatusError
		} else {
			status = ledgerdomain.SyncStatusSynced
			remoteQty = newQuantity
		}
	} else {
		s.log.Warn("product not linked to remote item, skipping push",
			zap.Int64("product_id", productID))
	}

	err = s.repo.ApplyQuantity(ctx, ledgerdomain.QuantityUpdate{
		ProductID:      productID,
		ExpectedLocal:  record.LocalQuantity,
		LocalQuantity:  newQuantity,
		RemoteQuantity: remoteQty,
		Status:         status,
		SyncedAt:       now,
	})
	if err != nil && !errors.Is(err, ledgerdomain.ErrStaleQuantity) {
		return err
	}

	s.monitor.Evaluate(ctx, productID, s.productName(ctx, productID), newQuantity)
	return nil
}

// HandleOrderCompleted promptly pushes every managed line item of a
// completed order instead of waiting for the next scheduled batch.
func (s *Service) HandleOrderCompleted(ctx context.Context, order commercedomain.Order) error {
	if !s.cfg.SyncOnOrder {
		s.log.Debug("sync on order disabled", zap.Int64("order_id", order.ID))
		return nil
	}

	for _, item := range order.Items {
		product, err := s.commerce.FindProduct(ctx, item.ProductID)
		if err != nil {
			s.log.Error("order item lookup failed",
				zap.Int64("order_id", order.ID),
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
			continue
		}
		if !product.ManageStock {
			continue
		}
		if err := s.SyncProduct(ctx, item.ProductID); err != nil && !errors.Is(err, syncdomain.ErrNotLinked) {
			s.log.Error("order item sync failed",
				zap.Int64("order_id", order.ID),
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
		}
	}
	return nil
}

// adoptProduct creates a ledger record from the commerce product on
// first contact.
func (s *Service) adoptProduct(ctx context.Context, productID int64) (*ledgerdomain.StockRecord, error) {
	product, err := s.commerce.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	record := &ledgerdomain.StockRecord{
		ProductID:     productID,
		RemoteItemID:  product.RemoteItemID,
		LocalQuantity: product.StockQuantity,
		SyncStatus:    ledgerdomain.SyncStatusPending,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) policy() resolve.Policy {
	switch s.cfg.Policy {
	case config.PolicyLocalWins:
		return resolve.PolicyLocalWins
	case config.PolicySourceWins:
		return resolve.PolicySourceWins
	default:
		return resolve.PolicyRemoteWins
	}
}

func (s *Service) markError(ctx context.Context, productID int64) {
	if err := s.repo.MarkSyncStatus(ctx, productID, ledgerdomain.SyncStatusError, s.clock.Now()); err != nil {
		s.log.Error("mark sync status failed", zap.Int64("product_id", productID), zap.Error(err))
	}
}

func (s *Service) appendChange(ctx context.Context, productID int64, oldQty, newQty int, source ledgerdomain.ChangeSource) {
	entry := &ledgerdomain.StockChangeEntry{
		ProductID:   productID,
		OldQuantity: oldQty,
		NewQuantity: newQty,
		Source:      source,
		Actor:       actorctx.ActorFromContext(ctx),
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.AppendChange(ctx, entry); err != nil {
		s.log.Error("append change log failed", zap.Int64("product_id", productID), zap.Error(err))
		return
	}
	if s.outbox != nil {
		payload := events.StockChangedPayload{
			ProductID:   productID,
			OldQuantity: oldQty,
			NewQuantity: newQty,
			Source:      string(source),
		}
		if err := s.outbox.Publish(ctx, events.Event{
			Type:      events.EventStockChanged,
			Payload:   payload.ToMap(),
			DedupeKey: entry.ID.String(),
		}); err != nil {
			s.log.Error("publish stock event failed", zap.Int64("product_id", productID), zap.Error(err))
		}
	}
}

func (s *Service) publishRunEvent(ctx context.Context, summary syncdomain.RunSummary) {
	if s.outbox == nil {
		return
	}
	eventType := events.EventSyncCompleted
	if summary.Failed > 0 {
		eventType = events.EventSyncFailed
	}
	payload := events.SyncRunPayload{
		Trigger:   string(summary.Trigger),
		Processed: summary.Processed,
		Updated:   summary.Updated,
		Failed:    summary.Failed,
	}
	if err := s.outbox.Publish(ctx, events.Event{Type: eventType, Payload: payload.ToMap()}); err != nil {
		s.log.Error("publish run event failed", zap.Error(err))
	}
}

func (s *Service) productName(ctx context.Context, productID int64) string {
	product, err := s.commerce.FindProduct(ctx, productID)
	if err != nil {
		return fmt.Sprintf("product %d", productID)
	}
	return product.Name
}
