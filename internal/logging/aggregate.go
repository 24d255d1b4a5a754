package logging

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// LogEntry is one parsed line of agentboard.log.
type LogEntry struct {
	Timestamp time.Time      `json:"time"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	Source    string         `json:"source,omitempty"`
	Workspace string         `json:"workspace,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// LogFilter selects log entries. Zero-valued fields do not filter.
type LogFilter struct {
	// Level keeps entries at or above this level.
	Level     string
	Since     time.Time
	Source    string
	Workspace string
	SessionID string
	// Contains keeps entries whose message contains this substring.
	Contains string
}

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// knownFields are lifted out of the raw JSON into LogEntry fields.
var knownFields = map[string]bool{
	"time":       true,
	"level":      true,
	"msg":        true,
	"source":     true,
	"workspace":  true,
	"session_id": true,
}

// maxBackupScan bounds how many rotated files AggregateLogs looks for.
const maxBackupScan = 100

// AggregateLogs reads {dir}/agentboard.log together with its rotated
// backups, gzipped or not, and returns every entry sorted by timestamp.
// Lines that are not valid JSON are skipped.
func AggregateLogs(dir string) ([]LogEntry, error) {
	live := filepath.Join(dir, LogFileName)
	paths := []string{live}
	for n := 1; n <= maxBackupScan; n++ {
		backup := BackupPath(live, n)
		if _, err := os.Stat(backup + ".gz"); err == nil {
			paths = append(paths, backup+".gz")
		} else if _, err := os.Stat(backup); err == nil {
			paths = append(paths, backup)
		} else {
			break
		}
	}

	var all []LogEntry
	found := 0
	for _, path := range paths {
		entries, err := readLogFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found++
		all = append(all, entries...)
	}
	if found == 0 {
		return nil, fmt.Errorf("no log file found in %s", dir)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})
	return all, nil
}

func readLogFile(path string) ([]LogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var r io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}
	return ReadLogEntries(r)
}

// ReadLogEntries parses newline-delimited JSON log entries from r.
func ReadLogEntries(r io.Reader) ([]LogEntry, error) {
	var entries []LogEntry
	scanner := bufio.NewScanner(r)

	const maxScanTokenSize = 1024 * 1024
	scanner.Buffer(make([]byte, maxScanTokenSize), maxScanTokenSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := parseLogEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

func parseLogEntry(line string) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	entry := LogEntry{Attrs: make(map[string]any)}
	if ts, ok := raw["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Timestamp = t
		}
	}
	entry.Level, _ = raw["level"].(string)
	entry.Message, _ = raw["msg"].(string)
	entry.Source, _ = raw["source"].(string)
	entry.Workspace, _ = raw["workspace"].(string)
	entry.SessionID, _ = raw["session_id"].(string)

	for k, v := range raw {
		if !knownFields[k] {
			entry.Attrs[k] = v
		}
	}
	return entry, nil
}

// FilterLogs returns the entries matching every criterion in filter.
func FilterLogs(entries []LogEntry, filter LogFilter) []LogEntry {
	if filter == (LogFilter{}) {
		return entries
	}

	var filtered []LogEntry
	for _, entry := range entries {
		if matchesFilter(entry, filter) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

func matchesFilter(entry LogEntry, filter LogFilter) bool {
	if filter.Level != "" {
		minLevel, okFilter := levelOrder[strings.ToUpper(filter.Level)]
		got, okEntry := levelOrder[entry.Level]
		if okFilter && okEntry && got < minLevel {
			return false
		}
	}
	if !filter.Since.IsZero() && entry.Timestamp.Before(filter.Since) {
		return false
	}
	if filter.Source != "" && entry.Source != filter.Source {
		return false
	}
	if filter.Workspace != "" && entry.Workspace != filter.Workspace {
		return false
	}
	if filter.SessionID != "" && entry.SessionID != filter.SessionID {
		return false
	}
	if filter.Contains != "" && !strings.Contains(entry.Message, filter.Contains) {
		return false
	}
	return true
}

// WriteLogEntries renders entries to w. Supported formats: json, text, csv.
func WriteLogEntries(w io.Writer, entries []LogEntry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "text", "":
		return writeText(w, entries)
	case "csv":
		return writeCSV(w, entries)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: json, text, csv)", format)
	}
}

// FormatEntry renders a single entry as one line of text.
func FormatEntry(entry LogEntry) string {
	parts := []string{
		"[" + entry.Timestamp.Format("2006-01-02 15:04:05.000") + "]",
		entry.Level,
		"-",
		entry.Message,
	}

	var context []string
	if entry.Source != "" {
		context = append(context, "source="+entry.Source)
	}
	if entry.Workspace != "" {
		context = append(context, "workspace="+entry.Workspace)
	}
	if entry.SessionID != "" {
		context = append(context, "session="+entry.SessionID)
	}
	if len(context) > 0 {
		parts = append(parts, "("+strings.Join(context, ", ")+")")
	}
	if len(entry.Attrs) > 0 {
		if b, err := json.Marshal(entry.Attrs); err == nil {
			parts = append(parts, string(b))
		}
	}
	return strings.Join(parts, " ")
}

func writeText(w io.Writer, entries []LogEntry) error {
	for _, entry := range entries {
		if _, err := fmt.Fprintln(w, FormatEntry(entry)); err != nil {
			return fmt.Errorf("failed to write text entry: %w", err)
		}
	}
	return nil
}

func writeCSV(w io.Writer, entries []LogEntry) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"timestamp", "level", "message", "source", "workspace", "session_id", "attrs"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, entry := range entries {
		attrs := ""
		if len(entry.Attrs) > 0 {
			if b, err := json.Marshal(entry.Attrs); err == nil {
				attrs = string(b)
			}
		}
		record := []string{
			entry.Timestamp.Format(time.RFC3339Nano),
			entry.Level,
			entry.Message,
			entry.Source,
			entry.Workspace,
			entry.SessionID,
			attrs,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
