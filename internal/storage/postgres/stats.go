package postgres

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/gatherly/gathering-api/internal/logger"
)

// ledgerTables are the tables whose statistics the report covers
var ledgerTables = []string{"gatherings", "events", "event_participants", "polls", "poll_options", "poll_votes"}

const (
	seqScanRatioThreshold  = 0.5
	seqScanMinRows         = 1000
	connectionUsageWarning = 80.0
)

// StatsReporter reads PostgreSQL statistics for the ledger tables
type StatsReporter struct {
	db  *gorm.DB
	log *log.Logger
}

// NewStatsReporter creates a statistics reporter
func NewStatsReporter(db *gorm.DB) *StatsReporter {
	return &StatsReporter{
		db:  db,
		log: logger.Repository("stats"),
	}
}

// TableStats represents one table's size and scan counters
type TableStats struct {
	TableName    string     `json:"table_name"`
	LiveRows     int64      `json:"live_rows"`
	TableSize    string     `json:"table_size"`
	IndexSize    string     `json:"index_size"`
	SeqScans     int64      `json:"seq_scans"`
	IndexScans   int64      `json:"index_scans"`
	LastAnalyzed *time.Time `json:"last_analyzed"`
}

// ConnectionStats represents connection usage of the current database
type ConnectionStats struct {
	TotalConnections   int     `json:"total_connections"`
	ActiveConnections  int     `json:"active_connections"`
	IdleConnections    int     `json:"idle_connections"`
	MaxConnections     int     `json:"max_connections"`
	ConnectionsPercent float64 `json:"connections_percent"`
}

// Hint is a suggestion derived from the statistics
type Hint struct {
	Table      string `json:"table,omitempty"`
	Suggestion string `json:"suggestion"`
	Priority   string `json:"priority"`
}

// StatsReport is the result of Report
type StatsReport struct {
	Tables      []TableStats    `json:"tables"`
	Connections ConnectionStats `json:"connections"`
	Hints       []Hint          `json:"hints"`
}

// Report gathers table and connection statistics. Partial failures are
// logged and leave the corresponding section empty.
func (r *StatsReporter) Report(ctx context.Context) (*StatsReport, error) {
	report := &StatsReport{}

	tables, err := r.tableStats(ctx)
	if err != nil {
		r.log.Warn("failed to read table stats", "error", err)
	} else {
		report.Tables = tables
	}

	conns, err := r.connectionStats(ctx)
	if err != nil {
		r.log.Warn("failed to read connection stats", "error", err)
	} else {
		report.Connections = *conns
	}

	if report.Tables == nil && conns == nil {
		return nil, fmt.Errorf("no statistics available")
	}

	report.Hints = buildHints(report)
	r.log.Info("statistics collected", "tables", len(report.Tables), "hints", len(report.Hints))
	return report, nil
}

func (r *StatsReporter) tableStats(ctx context.Context) ([]TableStats, error) {
	rows, err := r.db.WithContext(ctx).Raw(`
		SELECT
			relname,
			n_live_tup,
			pg_size_pretty(pg_table_size(relid)),
			pg_size_pretty(pg_indexes_size(relid)),
			seq_scan,
			COALESCE(idx_scan, 0),
			GREATEST(last_analyze, last_autoanalyze)
		FROM pg_stat_user_tables
		WHERE relname IN ?
		ORDER BY pg_total_relation_size(relid) DESC
	`, ledgerTables).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []TableStats
	for rows.Next() {
		var s TableStats
		if err := rows.Scan(&s.TableName, &s.LiveRows, &s.TableSize, &s.IndexSize, &s.SeqScans, &s.IndexScans, &s.LastAnalyzed); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *StatsReporter) connectionStats(ctx context.Context) (*ConnectionStats, error) {
	var stats ConnectionStats

	row := r.db.WithContext(ctx).Raw(`
		SELECT
			count(*),
			count(*) FILTER (WHERE state = 'active'),
			count(*) FILTER (WHERE state = 'idle'),
			(SELECT setting::int FROM pg_settings WHERE name = 'max_connections')
		FROM pg_stat_activity
		WHERE datname = current_database()
	`).Row()
	if err := row.Scan(&stats.TotalConnections, &stats.ActiveConnections, &stats.IdleConnections, &stats.MaxConnections); err != nil {
		return nil, err
	}

	if stats.MaxConnections > 0 {
		stats.ConnectionsPercent = float64(stats.TotalConnections) / float64(stats.MaxConnections) * 100
	}
	return &stats, nil
}

func buildHints(report *StatsReport) []Hint {
	var hints []Hint

	for _, t := range report.Tables {
		scans := t.SeqScans + t.IndexScans
		if t.LiveRows >= seqScanMinRows && scans > 0 && float64(t.SeqScans)/float64(scans) > seqScanRatioThreshold {
			hints = append(hints, Hint{
				Table:      t.TableName,
				Suggestion: "most scans are sequential; check that vote and option lookups use their indexes",
				Priority:   "high",
			})
		}
		if t.LiveRows > 0 && t.LastAnalyzed == nil {
			hints = append(hints, Hint{
				Table:      t.TableName,
				Suggestion: "table has never been analyzed; run ANALYZE",
				Priority:   "medium",
			})
		}
	}

	if report.Connections.ConnectionsPercent > connectionUsageWarning {
		hints = append(hints, Hint{
			Suggestion: fmt.Sprintf("connection usage at %.0f%%; lower the pool size or raise max_connections", report.Connections.ConnectionsPercent),
			Priority:   "high",
		})
	}

	slices.SortStableFunc(hints, func(a, b Hint) int {
		if a.Priority == b.Priority {
			return 0
		}
		if a.Priority == "high" {
			return -1
		}
		return 1
	})
	return hints
}
