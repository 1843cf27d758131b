// =============================================================================
// Voucher Export - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the exporter:
//   - Output file naming
//   - Writing output files
//   - Archival (copying generated files)
//   - Error log and run summary generation
//
// ARCHIVAL STRATEGY:
//   - Output files are copied to the archive directory after a run
//   - Archived copies can be filed under YYYY/MM/DD subdirectories
//   - Old archives can be removed by age
//   - Error logs and summaries are created in the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the exporter.
type FileManager struct {
	// OutputDir is the directory where output files are placed.
	OutputDir string

	// OutputArchiveDir is the directory for archived output files. Empty
	// disables archiving.
	OutputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in archives.
	// Example: output_archive/2024/01/15/file.xml
	UseTimestampSubdirs bool

	// now is replaced in tests.
	now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		OutputDir:        outputDir,
		OutputArchiveDir: outputArchiveDir,
		now:              time.Now,
	}
}

// EnsureDirectories creates all configured directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.OutputArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteOutputFile writes data to fileName inside the output directory.
//
// RETURNS:
//   - The path to the written file.
//   - An error if the file cannot be written.
func (fm *FileManager) WriteOutputFile(fileName string, data []byte) (string, error) {
	outputPath := filepath.Join(fm.OutputDir, fileName)

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return outputPath, nil
}

// ArchiveOutputFile copies an output file to the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//
// RETURNS:
//   - The path to the archived file, or "" when archiving is disabled.
//   - An error if archival fails.
//
// NOTE: Output files are copied, not moved, so they remain in the output directory.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	if fm.OutputArchiveDir == "" {
		return "", nil
	}

	archivePath := fm.getArchivePath(fm.OutputArchiveDir, filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(archiveDir, filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := fm.clock()
		return filepath.Join(
			archiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(archiveDir, fileName)
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//             plus any key of params, e.g. {from}, {to}, {kind}.
//   - params: A map of placeholder values.
//
// RETURNS:
//   - The generated file name, always ending in .xml.
//
// EXAMPLE:
//   format: "tally_{kind}_{from}_{to}.xml"
//   params: {"kind": "vouchers", "from": "2022-04-01", "to": "2022-04-30"}
//   output: "tally_vouchers_2022-04-01_2022-04-30.xml"
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}

	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if !strings.HasSuffix(strings.ToLower(result), ".xml") {
		result += ".xml"
	}

	return result
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp time.Time
	Severity  string
	ErrorType string
	Message   string

	// Position is the 1-indexed position of the voucher or account in the
	// run input.
	Position  int
	Date      string
	VoucherNo string
	Account   string
}

// WriteErrorLog writes error entries to a log file named after the run.
//
// PARAMETERS:
//   - entries: The error entries to write.
//   - outputDir: The directory to write the log file.
//   - runID: The run the entries belong to.
//
// RETURNS:
//   - The path to the error log file, or "" when there is nothing to write.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir, runID string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s_%s.txt",
		time.Now().Format("20060102_150405"), shortID(runID)))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Voucher Export - Error Log\n"+
		"Run:          %s\n"+
		"Generated:    %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		runID,
		time.Now().Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n"+
			"  Timestamp:      %s\n"+
			"  Severity:       %s\n"+
			"  Error Type:     %s\n"+
			"  Message:        %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Severity,
			entry.ErrorType,
			entry.Message)

		if entry.Position > 0 {
			fmt.Fprintf(writer, "  Position:       %d\n", entry.Position)
		}
		if entry.Date != "" {
			fmt.Fprintf(writer, "  Date:           %s\n", entry.Date)
		}
		if entry.VoucherNo != "" {
			fmt.Fprintf(writer, "  Voucher No:     %s\n", entry.VoucherNo)
		}
		if entry.Account != "" {
			fmt.Fprintf(writer, "  Account:        %s\n", entry.Account)
		}

		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// SUMMARY GENERATION
// =============================================================================

// ProcessingSummary contains the summary of one export run.
type ProcessingSummary struct {
	RunID      string
	Kind       string
	PeriodFrom string
	PeriodTo   string
	StartTime  time.Time
	EndTime    time.Time
	Total      int
	Succeeded  int
	Failed     int
	Warnings   int
	OutputFile string
	Failures   []FailedItemInfo
}

// FailedItemInfo describes one voucher or account that was left out.
type FailedItemInfo struct {
	Position  int
	Date      string
	VoucherNo string
	Account   string
	Kind      string
	Error     string
}

// WriteSummaryLog writes a processing summary to a file.
//
// PARAMETERS:
//   - summary: The processing summary.
//   - outputDir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("processing_summary_%s_%s.txt",
		time.Now().Format("20060102_150405"), shortID(summary.RunID)))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	FormatSummary(writer, summary)

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// FormatSummary writes the human-readable summary, as stored by
// WriteSummaryLog, to w.
func FormatSummary(w io.Writer, summary ProcessingSummary) {
	output := summary.OutputFile
	if output == "" {
		output = "(none)"
	}

	fmt.Fprintf(w, "Voucher Export - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Export:         %s\n"+
		"  Period:         %s to %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Total:          %d\n"+
		"  Succeeded:      %d\n"+
		"  Failed:         %d\n"+
		"  Warnings:       %d\n"+
		"  Output:         %s\n\n",
		summary.RunID,
		summary.Kind,
		orOpen(summary.PeriodFrom),
		orOpen(summary.PeriodTo),
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.Total,
		summary.Succeeded,
		summary.Failed,
		summary.Warnings,
		output)

	if len(summary.Failures) > 0 {
		io.WriteString(w, "Failures:\n")
		io.WriteString(w, "--------------------------------------------------------------------------------\n")
		for _, f := range summary.Failures {
			fmt.Fprintf(w, "  #%d", f.Position)
			if f.Date != "" {
				fmt.Fprintf(w, "  %s", f.Date)
			}
			if f.VoucherNo != "" {
				fmt.Fprintf(w, "  %s", f.VoucherNo)
			}
			if f.Account != "" {
				fmt.Fprintf(w, "  %s", f.Account)
			}
			fmt.Fprintf(w, "  [%s]\n", f.Kind)
			fmt.Fprintf(w, "    %s\n", f.Error)
		}
		io.WriteString(w, "\n")
	}

	io.WriteString(w, "================================================================================\n"+
		"End of Summary\n")
}

// =============================================================================
// FILE UTILITIES
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// CleanOldArchives removes archive files older than maxAge.
//
// RETURNS:
//   - The number of files removed.
//   - An error if cleaning fails.
func CleanOldArchives(archiveDir string, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.Walk(archiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}

		return nil
	})

	if err != nil {
		return removed, fmt.Errorf("failed to clean archives: %w", err)
	}

	return removed, nil
}

func shortID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}

func orOpen(date string) string {
	if date == "" {
		return "(open)"
	}
	return date
}
