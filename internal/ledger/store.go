package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tidemark/internal/logger"
)

var fileNamePattern = regexp.MustCompile(`^decision_(\d{8}_\d{6})_cycle(\d+)\.json$`)

// Store 是 append-only 的决策账本，每个周期写一个独立 JSON 文件，
// 文件名由时间戳与实例内递增的 cycle 序号决定。
// 写路径由互斥锁串行化；跨进程并发写入需要调用方自行保证单写者。
type Store struct {
	mu    sync.Mutex
	dir   string
	cycle int64
}

// Statistics 是整个目录的周期/动作统计。
type Statistics struct {
	TotalCycles      int `json:"total_cycles"`
	SuccessfulCycles int `json:"successful_cycles"`
	FailedCycles     int `json:"failed_cycles"`
	OpenActions      int `json:"open_actions"`
	CloseActions     int `json:"close_actions"`
}

// NewStore 打开（或创建）账本目录，并从已有文件恢复 cycle 计数，
// 保证重启后序号继续单调递增。
func NewStore(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("ledger directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory %s: %w", dir, err)
	}
	s := &Store{dir: dir}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan ledger directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, cycle, ok := parseFileName(entry.Name()); ok && cycle > s.cycle {
			s.cycle = cycle
		}
	}
	return s, nil
}

// Dir 返回账本目录。
func (s *Store) Dir() string { return s.dir }

// Append 为记录分配下一个周期号、当前时间戳与 trace_id 并落盘。
// 已写入的记录永不改动。
func (s *Store) Append(rec *DecisionRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidRecord)
	}
	if err := validateActions(rec.Decisions); err != nil {
		return err
	}
	if err := ValidateDecisionJSON(rec.DecisionJSON); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.cycle++
	rec.CycleNumber = s.cycle
	rec.Timestamp = now.UnixMilli()
	if strings.TrimSpace(rec.TraceID) == "" {
		rec.TraceID = uuid.NewString()
	}

	name := fmt.Sprintf("decision_%s_cycle%d.json", now.Format("20060102_150405"), s.cycle)
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal decision record: %w", err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write decision record %s: %w", path, err)
	}
	logger.Debugf("账本已写入 %s (cycle=%d trace=%s)", name, rec.CycleNumber, rec.TraceID)
	return nil
}

// ReadRecent 返回最近 n 条记录，按时间升序（窗口内最旧的在前）。
// 不足 n 条时返回全部；损坏的文件跳过。
func (s *Store) ReadRecent(n int) ([]DecisionRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	all, err := s.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

// ReadAll 读取目录内全部记录，按周期号升序。解析失败的文件记一条
// 警告后跳过，批量扫描永不因单条损坏而中断。
func (s *Store) ReadAll() ([]DecisionRecord, error) {
	names, err := s.listFiles()
	if err != nil {
		return nil, err
	}
	out := make([]DecisionRecord, 0, len(names))
	for _, name := range names {
		rec, err := s.readFile(name)
		if err != nil {
			logger.Warnf("跳过损坏的决策记录 %s: %v", name, err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReadByDate 返回文件名时间戳以 prefix 开头的记录，例如 "20260828"
// 取一整天，"20260828_09" 取某一小时。
func (s *Store) ReadByDate(prefix string) ([]DecisionRecord, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, fmt.Errorf("date prefix is required")
	}
	names, err := s.listFiles()
	if err != nil {
		return nil, err
	}
	out := make([]DecisionRecord, 0, len(names))
	for _, name := range names {
		stamp, _, ok := parseFileName(name)
		if !ok || !strings.HasPrefix(stamp, prefix) {
			continue
		}
		rec, err := s.readFile(name)
		if err != nil {
			logger.Warnf("跳过损坏的决策记录 %s: %v", name, err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Prune 删除落盘时间早于 cutoff 的记录文件，返回删除数量。
func (s *Store) Prune(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("scan ledger directory %s: %w", s.dir, err)
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, _, ok := parseFileName(entry.Name()); !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warnf("删除过期决策记录失败 %s: %v", path, err)
			continue
		}
		removed++
	}
	return removed, nil
}

// ComputeStatistics 全目录扫描，统计周期成败与成功的开平仓动作数。
func (s *Store) ComputeStatistics() (Statistics, error) {
	all, err := s.ReadAll()
	if err != nil {
		return Statistics{}, err
	}
	var stats Statistics
	stats.TotalCycles = len(all)
	for i := range all {
		rec := &all[i]
		if rec.Success {
			stats.SuccessfulCycles++
		} else {
			stats.FailedCycles++
		}
		for _, act := range rec.Decisions {
			if !act.Success {
				continue
			}
			switch {
			case act.Action.IsOpen():
				stats.OpenActions++
			case act.Action.IsClose():
				stats.CloseActions++
			}
		}
	}
	return stats, nil
}

// listFiles 返回按周期号升序排列的账本文件名。周期号在实例生命周期内
// 单调递增，比文件名字典序更可靠（cycle10 会排在 cycle2 之前）。
func (s *Store) listFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan ledger directory %s: %w", s.dir, err)
	}
	type numbered struct {
		name  string
		cycle int64
	}
	files := make([]numbered, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, cycle, ok := parseFileName(entry.Name()); ok {
			files = append(files, numbered{name: entry.Name(), cycle: cycle})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].cycle < files[j].cycle })
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	return names, nil
}

func (s *Store) readFile(name string) (DecisionRecord, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return DecisionRecord{}, err
	}
	var rec DecisionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return DecisionRecord{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return rec, nil
}

func parseFileName(name string) (stamp string, cycle int64, ok bool) {
	m := fileNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return m[1], n, true
}
