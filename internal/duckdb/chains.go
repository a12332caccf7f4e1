package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-liftover/internal/chain"
)

// WriteChains batch-inserts chains and their blocks using the Appender API.
// Chains are appended after any already in the store.
func (s *Store) WriteChains(chains []*chain.Chain) error {
	if len(chains) == 0 {
		return nil
	}

	var next int64
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(chain_key), -1) + 1 FROM chains`).Scan(&next); err != nil {
		return fmt.Errorf("next chain key: %w", err)
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var chainApp, blockApp *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		chainApp, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "chains")
		if err != nil {
			return err
		}
		blockApp, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "blocks")
		if err != nil {
			chainApp.Close()
		}
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer chainApp.Close()
	defer blockApp.Close()

	for i, c := range chains {
		key := next + int64(i)
		if err := chainApp.AppendRow(
			key, c.ID, c.Score,
			c.FromName, c.FromSize, c.FromStart, c.FromEnd,
			c.ToName, c.ToSize, c.ToNegativeStrand, c.ToStart, c.ToEnd,
		); err != nil {
			return fmt.Errorf("append chain %d: %w", c.ID, err)
		}
		for j, b := range c.Blocks {
			if err := blockApp.AppendRow(key, int64(j), b.FromStart, b.ToStart, b.Size); err != nil {
				return fmt.Errorf("append block of chain %d: %w", c.ID, err)
			}
		}
	}

	if err := chainApp.Flush(); err != nil {
		return fmt.Errorf("flush chains: %w", err)
	}
	return blockApp.Flush()
}

// ReadChains returns every stored chain in insertion order.
func (s *Store) ReadChains() ([]*chain.Chain, error) {
	rows, err := s.db.Query(`SELECT
		chain_key, chain_id, score,
		from_name, from_size, from_start, from_end,
		to_name, to_size, to_negative, to_start, to_end
		FROM chains ORDER BY chain_key`)
	if err != nil {
		return nil, fmt.Errorf("query chains: %w", err)
	}
	defer rows.Close()

	var chains []*chain.Chain
	byKey := make(map[int64]*chain.Chain)
	for rows.Next() {
		var key int64
		c := &chain.Chain{}
		if err := rows.Scan(
			&key, &c.ID, &c.Score,
			&c.FromName, &c.FromSize, &c.FromStart, &c.FromEnd,
			&c.ToName, &c.ToSize, &c.ToNegativeStrand, &c.ToStart, &c.ToEnd,
		); err != nil {
			return nil, fmt.Errorf("scan chain: %w", err)
		}
		chains = append(chains, c)
		byKey[key] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chains: %w", err)
	}

	blocks, err := s.db.Query(`SELECT chain_key, from_start, to_start, size
		FROM blocks ORDER BY chain_key, block_index`)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer blocks.Close()

	for blocks.Next() {
		var key int64
		var b chain.Block
		if err := blocks.Scan(&key, &b.FromStart, &b.ToStart, &b.Size); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		c, ok := byKey[key]
		if !ok {
			return nil, fmt.Errorf("block references unknown chain key %d", key)
		}
		c.Blocks = append(c.Blocks, b)
	}
	if err := blocks.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocks: %w", err)
	}

	for _, c := range chains {
		if err := c.Check(); err != nil {
			return nil, fmt.Errorf("stored chain %d: %w", c.ID, err)
		}
	}
	return chains, nil
}

// LoadIndex reads every stored chain into an overlap index.
func (s *Store) LoadIndex() (*chain.Index, error) {
	chains, err := s.ReadChains()
	if err != nil {
		return nil, err
	}
	return chain.NewIndex(chains), nil
}

// ChainCount returns the number of stored chains.
func (s *Store) ChainCount() (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM chains").Scan(&n)
	return n, err
}

// ClearChains removes all stored chains, blocks and source records.
func (s *Store) ClearChains() error {
	for _, table := range []string{"blocks", "chains", "source_files"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
