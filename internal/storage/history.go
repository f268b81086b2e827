// Package storage keeps a local record of observed market price vectors in
// BoltDB so snapshots that arrive without history can still feed the
// momentum features. Only inputs are stored, never forecasts.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const historyBucket = "price_history"

// Store provides persistent price-history storage using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the history database under dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "marketcast.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(historyBucket)); err != nil {
			return fmt.Errorf("create history bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// PricePoint is one recorded observation of a market's price vector.
type PricePoint struct {
	MarketID string    `json:"marketId"`
	Prices   []float64 `json:"prices"`
	Ts       time.Time `json:"ts"`
}

// AppendPrices stores one price vector for a market. Keys are
// "marketID_timestamp" so a cursor scan over the prefix yields
// chronological order.
func (s *Store) AppendPrices(marketID string, prices []float64, ts time.Time) error {
	if marketID == "" {
		return fmt.Errorf("market id required")
	}
	point := PricePoint{MarketID: marketID, Prices: prices, Ts: ts}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(historyBucket))

		data, err := json.Marshal(point)
		if err != nil {
			return fmt.Errorf("marshal price point: %w", err)
		}

		key := fmt.Sprintf("%s_%020d", marketID, ts.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// RecentPrices returns up to n of the most recent price points for a
// market, oldest first. Malformed records are skipped.
func (s *Store) RecentPrices(marketID string, n int) ([]PricePoint, error) {
	if n <= 0 {
		return nil, nil
	}

	var points []PricePoint
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(historyBucket))
		c := b.Cursor()

		prefix := []byte(marketID + "_")
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var point PricePoint
			if err := json.Unmarshal(v, &point); err != nil {
				continue
			}
			points = append(points, point)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(points) > n {
		points = points[len(points)-n:]
	}
	return points, nil
}
