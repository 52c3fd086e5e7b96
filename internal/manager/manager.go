package manager

import (
	"context"
	"fmt"
	"time"

	"orderhash/internal/chain"
	"orderhash/internal/eip712"
	"orderhash/internal/limitorder"
	"orderhash/internal/metrics"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/imkira/go-ttlmap"
	"go.uber.org/zap"
)

type Manager struct {
	*Broadcaster

	records *ttlmap.Map
	hasher  *limitorder.Hasher
	oracle  chain.Oracle
	logger  *zap.Logger
}

// NewManager builds a manager for one router deployment. oracle may be nil,
// in which case verification requests fail with ErrNoOracle.
func NewManager(hasher *limitorder.Hasher, oracle chain.Oracle, logger *zap.Logger) *Manager {
	options := &ttlmap.Options{
		InitialCapacity: 32,
		OnWillExpire: func(key string, item ttlmap.Item) {
			logger.Debug("Record expired", zap.String("orderHash", key))
			metrics.StoredRecords.Dec()
		},
		OnWillEvict: func(key string, item ttlmap.Item) {
			logger.Debug("Record evicted", zap.String("orderHash", key))
			metrics.StoredRecords.Dec()
		},
	}

	return &Manager{
		Broadcaster: NewBroadcaster(),
		records:     ttlmap.New(options),
		hasher:      hasher,
		oracle:      oracle,
		logger:      logger,
	}
}

func (m *Manager) Hasher() *limitorder.Hasher { return m.hasher }

func (m *Manager) HasOracle() bool { return m.oracle != nil }

// HashLimitOrder hashes order and, when verify is set, compares the digest
// with the router's getLimitOrderHash.
func (m *Manager) HashLimitOrder(ctx context.Context, order limitorder.LimitOrder, verify bool) (*Record, error) {
	hash, err := m.hasher.LimitOrderHash(order)
	if err != nil {
		return nil, m.hashFailed(KindLimitOrder, err)
	}

	record := m.newRecord(KindLimitOrder, limitorder.LimitOrderTypeName, hash)
	if verify {
		err := m.verify(ctx, record, func(ctx context.Context) (ethcommon.Hash, error) {
			return m.oracle.LimitOrderHash(ctx, order)
		})
		if err != nil {
			return nil, err
		}
	}

	m.store(record)
	return record, nil
}

// HashMultiLimitOrder hashes order and, when verify is set, compares the
// digest with the router's getMultiLimitOrderHash.
func (m *Manager) HashMultiLimitOrder(ctx context.Context, order limitorder.MultiLimitOrder, verify bool) (*Record, error) {
	hash, err := m.hasher.MultiLimitOrderHash(order)
	if err != nil {
		return nil, m.hashFailed(KindMultiLimitOrder, err)
	}

	record := m.newRecord(KindMultiLimitOrder, limitorder.MultiLimitOrderTypeName, hash)
	if verify {
		err := m.verify(ctx, record, func(ctx context.Context) (ethcommon.Hash, error) {
			return m.oracle.MultiLimitOrderHash(ctx, order)
		})
		if err != nil {
			return nil, err
		}
	}

	m.store(record)
	return record, nil
}

// HashTypedData hashes an arbitrary eth_signTypedData_v4 payload. Such
// payloads carry their own domain, so there is nothing to verify on-chain.
func (m *Manager) HashTypedData(td eip712.TypedData) (*Record, error) {
	primaryType, hash, err := td.Digest()
	if err != nil {
		return nil, m.hashFailed(KindTypedData, err)
	}

	record := m.newRecord(KindTypedData, primaryType, hash)
	m.store(record)
	return record, nil
}

func (m *Manager) GetRecord(orderHash string) (*Record, error) {
	hash, err := limitorder.ParseOrderHash(orderHash)
	if err != nil {
		return nil, fmt.Errorf("invalid order hash %q: %w", orderHash, err)
	}

	item, err := m.records.Get(hash.Hex())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, hash.Hex())
	}

	record, ok := item.Value().(*Record)
	if !ok || record == nil {
		return nil, fmt.Errorf("invalid record type for hash: %s", hash.Hex())
	}

	return record, nil
}

func (m *Manager) Close() {
	m.records.Drain()
	m.Broadcaster.Close()
}

func (m *Manager) newRecord(kind Kind, primaryType string, hash ethcommon.Hash) *Record {
	return &Record{
		ID:          uuid.New(),
		Kind:        kind,
		PrimaryType: primaryType,
		OrderHash:   hash,
		CreatedAt:   time.Now().UTC(),
	}
}

func (m *Manager) hashFailed(kind Kind, err error) error {
	result := metrics.ResultError
	if eip712.IsSchemaError(err) {
		result = metrics.ResultSchemaError
	}
	metrics.HashesComputed.WithLabelValues(string(kind), result).Inc()

	m.logger.Debug("Hash request rejected", zap.String("kind", string(kind)), zap.Error(err))
	return err
}

func (m *Manager) verify(ctx context.Context, record *Record, call func(context.Context) (ethcommon.Hash, error)) error {
	if m.oracle == nil {
		return ErrNoOracle
	}

	kind := string(record.Kind)
	start := time.Now()
	oracleHash, err := call(ctx)
	metrics.OracleCallDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.OracleCalls.WithLabelValues(kind, metrics.ResultError).Inc()
		m.logger.Warn("Router call failed", zap.String("kind", kind), zap.Error(err))
		return &OracleError{Kind: record.Kind, Err: err}
	}
	metrics.OracleCalls.WithLabelValues(kind, metrics.ResultOK).Inc()

	match := oracleHash == record.OrderHash
	record.Verified = true
	record.OracleHash = &oracleHash
	record.Match = &match

	if !match {
		metrics.Verifications.WithLabelValues(kind, metrics.ResultMismatch).Inc()
		m.logger.Warn("Order hash mismatch",
			zap.String("kind", kind),
			zap.Stringer("local", record.OrderHash),
			zap.Stringer("router", oracleHash))
		return nil
	}

	metrics.Verifications.WithLabelValues(kind, metrics.ResultMatch).Inc()
	return nil
}

func (m *Manager) store(record *Record) {
	metrics.HashesComputed.WithLabelValues(string(record.Kind), metrics.ResultOK).Inc()

	key := record.OrderHash.Hex()
	if err := m.records.Set(key, ttlmap.NewItem(record, ttlmap.WithTTL(RecordTTL)), nil); err != nil {
		m.logger.Error("Failed to store record", zap.String("orderHash", key), zap.Error(err))
		return
	}
	metrics.StoredRecords.Set(float64(m.records.Len()))

	if err := m.HandleRecordEvent(record); err != nil {
		m.logger.Error("Failed to broadcast record", zap.String("orderHash", key), zap.Error(err))
	}
}
