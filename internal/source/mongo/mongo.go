// Package mongo reads vouchers and accounts from an accounting database in
// MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/ginjaninja78/tally-voucher-export/internal/config"
	"github.com/ginjaninja78/tally-voucher-export/internal/source"
	"github.com/ginjaninja78/tally-voucher-export/internal/voucher"
)

var (
	// ErrEmptyURI is returned when the connection string is empty.
	ErrEmptyURI = errors.New("mongo uri cannot be empty")
	// ErrEmptyDatabaseName is returned when the database name is empty.
	ErrEmptyDatabaseName = errors.New("database name cannot be empty")
	// ErrConnect wraps connection establishment failures.
	ErrConnect = errors.New("mongo connect failed")
	// ErrPing wraps failed connectivity checks.
	ErrPing = errors.New("mongo ping failed")
	// ErrQuery wraps find and decode failures.
	ErrQuery = errors.New("mongo query failed")
)

// salesCollection is the collection whose cash-only sales may be merged.
const salesCollection = "sales"

// Source is a source.Source backed by MongoDB.
type Source struct {
	client  *mongodriver.Client
	db      *mongodriver.Database
	cfg     config.MongoSourceConfig
	exclude []string
	timeout time.Duration
	logger  *zap.Logger
}

var _ source.Source = (*Source)(nil)

// New connects to MongoDB and checks the connection.
func New(ctx context.Context, cfg config.SourceConfig, logger *zap.Logger) (*Source, error) {
	mcfg := cfg.Mongo
	if mcfg.URI == "" {
		return nil, ErrEmptyURI
	}
	if mcfg.Database == "" {
		return nil, ErrEmptyDatabaseName
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := time.Duration(mcfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	clientOptions := options.Client().
		ApplyURI(mcfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongodriver.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %w", ErrPing, err)
	}

	logger.Debug("connected to mongo", zap.String("database", mcfg.Database))

	return &Source{
		client:  client,
		db:      client.Database(mcfg.Database),
		cfg:     mcfg,
		exclude: cfg.ExcludeAccountTypes,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Accounts reads the account directory.
func (s *Source) Accounts(ctx context.Context) ([]voucher.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	findOptions := options.Find().SetProjection(bson.D{
		{Key: "name", Value: 1},
		{Key: "accountType", Value: 1},
	})

	cursor, err := s.db.Collection(s.cfg.AccountsCollection).Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrQuery, s.cfg.AccountsCollection, err)
	}

	var docs []accountDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrQuery, s.cfg.AccountsCollection, err)
	}

	accounts := make([]voucher.Account, 0, len(docs))
	for _, doc := range docs {
		accounts = append(accounts, doc.toAccount())
	}

	s.logger.Debug("loaded accounts", zap.Int("count", len(accounts)))

	return accounts, nil
}

// Vouchers reads every configured collection in turn, keeping collection
// order and date order inside each collection.
func (s *Source) Vouchers(ctx context.Context, period source.Period) ([]voucher.RawVoucher, error) {
	var all []voucher.RawVoucher

	for _, collection := range s.cfg.Collections {
		docs, err := s.find(ctx, collection, period)
		if err != nil {
			return nil, err
		}

		if collection == salesCollection && s.cfg.MergeCashSales {
			cash, credit := splitCashSales(docs)
			merged, err := mergeCashSales(cash)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", collection, err)
			}
			s.logger.Debug("merged cash sales",
				zap.Int("cash_sales", len(cash)),
				zap.Int("days", len(merged)),
			)
			all = append(all, merged...)
			docs = credit
		}

		for i, doc := range docs {
			raw, err := doc.toRaw()
			if err != nil {
				return nil, fmt.Errorf("%s: document %d: %w", collection, i, err)
			}
			all = append(all, raw)
		}

		s.logger.Debug("loaded vouchers",
			zap.String("collection", collection),
			zap.Int("count", len(docs)),
		)
	}

	return source.FilterLegs(all, s.exclude), nil
}

func (s *Source) find(ctx context.Context, collection string, period source.Period) ([]voucherDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	findOptions := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}}).
		SetAllowDiskUse(true)

	cursor, err := s.db.Collection(collection).Find(ctx, dateFilter(period), findOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrQuery, collection, err)
	}

	var docs []voucherDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrQuery, collection, err)
	}

	return docs, nil
}

// Close disconnects the client.
func (s *Source) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// dateFilter matches voucher dates inside the period. Dates are stored as
// "YYYY-MM-DD" strings.
func dateFilter(period source.Period) bson.D {
	var bounds bson.D
	if period.From != "" {
		bounds = append(bounds, bson.E{Key: "$gte", Value: period.From})
	}
	if period.To != "" {
		bounds = append(bounds, bson.E{Key: "$lte", Value: period.To})
	}
	if len(bounds) == 0 {
		return bson.D{}
	}
	return bson.D{{Key: "date", Value: bounds}}
}

// amountOf converts credit and debit into a signed leg amount.
func amountOf(credit, debit decimal.Decimal) decimal.Decimal {
	return credit.Sub(debit)
}
