package vars

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

var log = logrus.WithField("component", "vars")

const schema = `CREATE TABLE IF NOT EXISTS variables (
	name    TEXT PRIMARY KEY,
	value   REAL NOT NULL,
	updated TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// SQLite 持久化到SQLite文件的变量表，跨命令调用保留
type SQLite struct {
	db *sql.DB
}

// OpenSQLite 打开或创建变量数据库
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开变量数据库 %s 失败: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化变量表失败: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close 关闭数据库
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Set 创建或更新变量
func (s *SQLite) Set(name string, value float64) error {
	_, err := s.db.Exec(`INSERT INTO variables (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated = CURRENT_TIMESTAMP`, name, value)
	if err != nil {
		return fmt.Errorf("写入变量 %s 失败: %w", name, err)
	}
	return nil
}

// Get 读取变量，查询出错时记录日志并视为不存在
func (s *SQLite) Get(name string) (float64, bool) {
	var v float64
	err := s.db.QueryRow(`SELECT value FROM variables WHERE name = ?`, name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false
	}
	if err != nil {
		log.WithError(err).WithField("name", name).Warn("读取变量失败")
		return 0, false
	}
	return v, true
}

// Names 返回排序后的变量名
func (s *SQLite) Names() []string {
	rows, err := s.db.Query(`SELECT name FROM variables ORDER BY name`)
	if err != nil {
		log.WithError(err).Warn("列出变量失败")
		return nil
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			log.WithError(err).Warn("读取变量名失败")
			return names
		}
		names = append(names, name)
	}
	return names
}
