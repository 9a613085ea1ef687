package records

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/tradebook/internal/backend"
	"github.com/ziadkadry99/tradebook/internal/logging"
	"github.com/ziadkadry99/tradebook/internal/schema"
)

// Store runs the record operations through a backend client.
type Store struct {
	client *backend.Client
	logger *zap.Logger
}

// NewStore creates a Store. A nil logger discards logs.
func NewStore(client *backend.Client, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client: client,
		logger: logging.Component(logger, "records.Store"),
	}
}

// For returns a Store that acts as the session's user.
func (s *Store) For(sess *backend.Session) *Store {
	return &Store{client: s.client.WithSession(sess), logger: s.logger}
}

// LoadUserSettings returns the user's settings, creating the defaults on
// first use. It returns nil when the read fails, and the defaults when
// creating them fails.
func (s *Store) LoadUserSettings(ctx context.Context, userID string) *Settings {
	logger := s.logger.With(zap.String("method", "LoadUserSettings"), zap.String("user_id", userID))

	row, err := s.client.From(TableSettings).Select("*").Eq("user_id", userID).MaybeSingle(ctx)
	if err != nil && !backend.IsNoRows(err) {
		logger.Warn("loading settings", zap.Error(err))
		return nil
	}

	if row == nil {
		defaults := DefaultSettings(userID)
		insert, err := settingsMapping.ToRemote(defaults, nil)
		if err != nil {
			logger.Error("encoding default settings", zap.Error(err))
			return &defaults
		}
		row, err = s.client.From(TableSettings).Insert(insert).Select("*").Single(ctx)
		if err != nil {
			logger.Error("creating default settings", zap.Error(err))
			return &defaults
		}
		logger.Info("created default settings")
	}

	var out Settings
	if err := settingsMapping.FromRemote(row, &out); err != nil {
		logger.Warn("decoding settings", zap.Error(err))
		return nil
	}
	return &out
}

// SaveUserSettings upserts the user's settings.
func (s *Store) SaveUserSettings(ctx context.Context, userID string, settings Settings) error {
	row, err := settingsMapping.ToRemote(settings, schema.Row{"user_id": userID})
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if _, err := s.client.From(TableSettings).Upsert(row, "user_id").Execute(ctx); err != nil {
		s.writeFailed("SaveUserSettings", err)
		return err
	}
	return nil
}

// LoadBrokers returns the user's brokers oldest first, or an empty slice
// when the read fails.
func (s *Store) LoadBrokers(ctx context.Context, userID string) []Broker {
	rows, err := s.client.From(TableBrokers).Select("*").Eq("user_id", userID).Order("created_at", true).Execute(ctx)
	if err != nil {
		s.readFailed("LoadBrokers", err)
		return []Broker{}
	}
	brokers := make([]Broker, 0, len(rows))
	if err := brokerMapping.FromRemoteList(rows, &brokers); err != nil {
		s.readFailed("LoadBrokers", err)
		return []Broker{}
	}
	return brokers
}

// AddBroker creates a broker and returns it with its assigned id.
func (s *Store) AddBroker(ctx context.Context, userID, name string, discountPercent float64) (*Broker, error) {
	row, err := brokerMapping.ToRemote(Broker{Name: name, DiscountPercent: discountPercent}, schema.Row{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("encoding broker: %w", err)
	}
	created, err := s.client.From(TableBrokers).Insert(row).Select("*").Single(ctx)
	if err != nil {
		s.writeFailed("AddBroker", err)
		return nil, err
	}
	var b Broker
	if err := brokerMapping.FromRemote(created, &b); err != nil {
		s.writeFailed("AddBroker", err)
		return nil, err
	}
	return &b, nil
}

// UpdateBroker renames a broker and sets its discount.
func (s *Store) UpdateBroker(ctx context.Context, brokerID, name string, discountPercent float64) error {
	row, err := brokerMapping.ToRemote(Broker{Name: name, DiscountPercent: discountPercent}, nil)
	if err != nil {
		return fmt.Errorf("encoding broker: %w", err)
	}
	if _, err := s.client.From(TableBrokers).Update(row).Eq("id", brokerID).Execute(ctx); err != nil {
		s.writeFailed("UpdateBroker", err)
		return err
	}
	return nil
}

// DeleteBroker removes a broker.
func (s *Store) DeleteBroker(ctx context.Context, brokerID string) error {
	if _, err := s.client.From(TableBrokers).Delete().Eq("id", brokerID).Execute(ctx); err != nil {
		s.writeFailed("DeleteBroker", err)
		return err
	}
	return nil
}

// LoadTrades returns the user's trades by date, or an empty slice when the
// read fails.
func (s *Store) LoadTrades(ctx context.Context, userID string) []Trade {
	rows, err := s.client.From(TableTrades).Select("*").Eq("user_id", userID).Order("date", true).Execute(ctx)
	if err != nil {
		s.readFailed("LoadTrades", err)
		return []Trade{}
	}
	trades := make([]Trade, 0, len(rows))
	if err := tradeMapping.FromRemoteList(rows, &trades); err != nil {
		s.readFailed("LoadTrades", err)
		return []Trade{}
	}
	return trades
}

// AddTrade stores one trade and returns it as saved.
func (s *Store) AddTrade(ctx context.Context, userID string, trade Trade) (*Trade, error) {
	row, err := tradeMapping.ToRemote(trade, schema.Row{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("encoding trade: %w", err)
	}
	created, err := s.client.From(TableTrades).Insert(row).Select("*").Single(ctx)
	if err != nil {
		s.writeFailed("AddTrade", err)
		return nil, err
	}
	var t Trade
	if err := tradeMapping.FromRemote(created, &t); err != nil {
		s.writeFailed("AddTrade", err)
		return nil, err
	}
	return &t, nil
}

// UpdateTrade replaces every field of a trade.
func (s *Store) UpdateTrade(ctx context.Context, tradeID string, trade Trade) error {
	row, err := tradeMapping.ToRemote(trade, nil)
	if err != nil {
		return fmt.Errorf("encoding trade: %w", err)
	}
	if _, err := s.client.From(TableTrades).Update(row).Eq("id", tradeID).Execute(ctx); err != nil {
		s.writeFailed("UpdateTrade", err)
		return err
	}
	return nil
}

// DeleteTrade removes a trade.
func (s *Store) DeleteTrade(ctx context.Context, tradeID string) error {
	if _, err := s.client.From(TableTrades).Delete().Eq("id", tradeID).Execute(ctx); err != nil {
		s.writeFailed("DeleteTrade", err)
		return err
	}
	return nil
}

// BulkAddTrades stores trades in a single request and returns them as saved.
func (s *Store) BulkAddTrades(ctx context.Context, userID string, trades []Trade) ([]Trade, error) {
	if len(trades) == 0 {
		return []Trade{}, nil
	}
	rows := make([]schema.Row, 0, len(trades))
	for i, t := range trades {
		row, err := tradeMapping.ToRemote(t, schema.Row{"user_id": userID})
		if err != nil {
			return nil, fmt.Errorf("encoding trade %d: %w", i, err)
		}
		rows = append(rows, row)
	}

	created, err := s.client.From(TableTrades).Insert(rows).Select("*").Execute(ctx)
	if err != nil {
		s.writeFailed("BulkAddTrades", err)
		return nil, err
	}
	out := make([]Trade, 0, len(created))
	if err := tradeMapping.FromRemoteList(created, &out); err != nil {
		s.writeFailed("BulkAddTrades", err)
		return nil, err
	}
	return out, nil
}

// DeleteAllTrades removes every trade of the user.
func (s *Store) DeleteAllTrades(ctx context.Context, userID string) error {
	if _, err := s.client.From(TableTrades).Delete().Eq("user_id", userID).Execute(ctx); err != nil {
		s.writeFailed("DeleteAllTrades", err)
		return err
	}
	return nil
}

func (s *Store) readFailed(method string, err error) {
	s.logger.Warn("read failed", zap.String("method", method), zap.Error(err))
}

func (s *Store) writeFailed(method string, err error) {
	s.logger.Error("write failed", zap.String("method", method), zap.Error(err))
}
