// Package store 提供清洗结果的sqlite持久化
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"restodash/dataset"
)

// Config 存储配置
type Config struct {
	DBPath    string `yaml:"path"`
	EnableWAL bool   `yaml:"enable_wal"`
}

// Storage sqlite存储
type Storage struct {
	config Config
	db     *sql.DB

	preparedStmts map[string]*sql.Stmt
	stmtLock      sync.RWMutex
}

// Open 打开存储并建表
func Open(config Config) (*Storage, error) {
	s := &Storage{
		config:        config,
		preparedStmts: make(map[string]*sql.Stmt),
	}

	if err := s.initDB(); err != nil {
		return nil, err
	}
	return s, nil
}

// initDB 初始化数据库
func (s *Storage) initDB() error {
	if dir := filepath.Dir(s.config.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := s.config.DBPath
	if s.config.EnableWAL {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	} else {
		dsn += "?_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("open database failed: %w", err)
	}
	s.db = db

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := s.createTables(); err != nil {
		return fmt.Errorf("create tables failed: %w", err)
	}
	if err := s.createIndexes(); err != nil {
		return fmt.Errorf("create indexes failed: %w", err)
	}

	return nil
}

// createTables 创建表
func (s *Storage) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS restaurants (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            online_order INTEGER NOT NULL,
            book_table INTEGER NOT NULL,
            rate REAL,
            votes INTEGER,
            cost_for_two REAL,
            restaurant_type TEXT,
            loaded_at INTEGER NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS quality_issues (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            issue_type TEXT NOT NULL,
            severity TEXT NOT NULL,
            message TEXT,
            row_index INTEGER,
            name TEXT,
            created_at INTEGER DEFAULT (strftime('%s', 'now'))
        )`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("exec query failed: %w", err)
		}
	}
	return nil
}

// createIndexes 创建索引
func (s *Storage) createIndexes() error {
	queries := []string{
		`CREATE INDEX IF NOT EXISTS idx_restaurants_type ON restaurants(restaurant_type)`,
		`CREATE INDEX IF NOT EXISTS idx_restaurants_votes ON restaurants(votes)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_type ON quality_issues(issue_type)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceDataset 以事务整体替换快照。数据集重载后旧行全部失效，
// 因此先清空再批量插入。
func (s *Storage) ReplaceDataset(ctx context.Context, ds *dataset.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM restaurants`); err != nil {
		return fmt.Errorf("clear restaurants failed: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO restaurants
        (name, online_order, book_table, rate, votes, cost_for_two, restaurant_type, loaded_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	loadedAt := ds.LoadedAt().Unix()
	for _, r := range ds.Records() {
		_, err := stmt.ExecContext(ctx,
			r.Name,
			boolToInt(r.OnlineOrder),
			boolToInt(r.BookTable),
			nullFloat(r.Rate),
			nullInt(r.Votes),
			nullFloat(r.CostForTwo),
			r.Type,
			loadedAt,
		)
		if err != nil {
			return fmt.Errorf("insert restaurant failed: %w", err)
		}
	}

	return tx.Commit()
}

// ReplaceQualityIssues 整体替换质量问题。重载同一份文件会再次产生同一批
// 告警，追加写会越积越多，所以和数据行一样按最新快照先清后插。
func (s *Storage) ReplaceQualityIssues(ctx context.Context, issues []dataset.QualityIssue) error {
	stmt, err := s.getPreparedStmt(`INSERT INTO quality_issues
        (issue_type, severity, message, row_index, name)
        VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM quality_issues`); err != nil {
		return fmt.Errorf("clear quality issues failed: %w", err)
	}

	for _, issue := range issues {
		_, err := tx.Stmt(stmt).ExecContext(ctx,
			issue.Type,
			issue.Severity,
			issue.Message,
			issue.Row,
			issue.Name,
		)
		if err != nil {
			return fmt.Errorf("insert issue failed: %w", err)
		}
	}

	return tx.Commit()
}

// GetQualityIssues 按时间倒序获取质量问题
func (s *Storage) GetQualityIssues(ctx context.Context, limit int) ([]dataset.QualityIssue, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `SELECT issue_type, severity, message, row_index, name, created_at
        FROM quality_issues ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []dataset.QualityIssue
	for rows.Next() {
		var issue dataset.QualityIssue
		var createdAt int64
		if err := rows.Scan(&issue.Type, &issue.Severity, &issue.Message,
			&issue.Row, &issue.Name, &createdAt); err != nil {
			return nil, err
		}
		issue.Timestamp = time.Unix(createdAt, 0)
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// TopVoted 按投票数查询餐厅。和内存聚合一致，只排三列齐全的行，
// 无筛选的榜单请求可以直接走votes索引而不必全量扫描数据集。
func (s *Storage) TopVoted(ctx context.Context, limit int, ascending bool) ([]dataset.Record, error) {
	if limit <= 0 {
		limit = 10
	}

	order := "DESC"
	if ascending {
		order = "ASC"
	}
	query := fmt.Sprintf(`SELECT name, online_order, book_table, rate, votes, cost_for_two, restaurant_type
        FROM restaurants
        WHERE rate IS NOT NULL AND votes IS NOT NULL AND cost_for_two IS NOT NULL
        ORDER BY votes %s, name LIMIT ?`, order)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []dataset.Record
	for rows.Next() {
		var (
			r            dataset.Record
			online, book int
			rate, cost   sql.NullFloat64
			votes        sql.NullInt64
		)
		if err := rows.Scan(&r.Name, &online, &book, &rate, &votes, &cost, &r.Type); err != nil {
			return nil, err
		}
		r.OnlineOrder = online != 0
		r.BookTable = book != 0
		if rate.Valid {
			v := rate.Float64
			r.Rate = &v
		}
		if votes.Valid {
			v := int(votes.Int64)
			r.Votes = &v
		}
		if cost.Valid {
			v := cost.Float64
			r.CostForTwo = &v
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Stats 存储统计
func (s *Storage) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM restaurants`).Scan(&count); err != nil {
		return nil, err
	}
	stats["total_restaurants"] = count

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT restaurant_type) FROM restaurants`).Scan(&count); err != nil {
		return nil, err
	}
	stats["total_types"] = count

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quality_issues`).Scan(&count); err != nil {
		return nil, err
	}
	stats["total_issues"] = count

	return stats, nil
}

// getPreparedStmt 获取预编译语句
func (s *Storage) getPreparedStmt(query string) (*sql.Stmt, error) {
	s.stmtLock.RLock()
	stmt, ok := s.preparedStmts[query]
	s.stmtLock.RUnlock()

	if ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, err
	}

	s.stmtLock.Lock()
	s.preparedStmts[query] = stmt
	s.stmtLock.Unlock()

	return stmt, nil
}

// Close 关闭存储
func (s *Storage) Close() error {
	for _, stmt := range s.preparedStmts {
		_ = stmt.Close()
	}

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
