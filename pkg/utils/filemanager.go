// =============================================================================
// CSV Reconciler - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the reconciler:
//   - Directory management
//   - Saving uploaded files under collision-free, sanitized names
//   - Input archival (moving reconciled files)
//   - Retention cleanup of old uploads
//   - Report file naming
//   - Row warning logs
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to the archive directory after a successful run
//   - Failed inputs remain in their original location
//   - Uploads are deleted after the request unless configured otherwise
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the reconciler.
type FileManager struct {
	// UploadDir is where uploaded inputs are saved.
	UploadDir string

	// OutputDir is where report files are written.
	OutputDir string

	// ArchiveDir is where reconciled inputs are moved.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: input_archive/2024/01/15/fin.csv
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(uploadDir, outputDir, archiveDir string) *FileManager {
	return &FileManager{
		UploadDir:  uploadDir,
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all configured directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.UploadDir, fm.OutputDir, fm.ArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// UPLOADS
// =============================================================================

// SaveUpload stores an uploaded file in the upload directory.
//
// PARAMETERS:
//   - name: The client-supplied file name. Its stem is sanitized with
//     SecureFilename and prefixed with a UUID, so two uploads never share a
//     path. The extension is kept even when the stem sanitizes away.
//     Example: "정산.csv" -> "<uuid>.csv".
//   - r: The file content.
//
// RETURNS:
//   - The path the file was saved to.
//   - An error if the file cannot be written.
func (fm *FileManager) SaveUpload(name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(fm.UploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	fileName := uuid.New().String()
	ext := uploadExtension(name)
	if safe := SecureFilename(strings.TrimSuffix(name, filepath.Ext(name))); safe != "" {
		fileName += "_" + safe
	}
	path := filepath.Join(fm.UploadDir, fileName+ext)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to save upload: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to save upload: %w", err)
	}

	return path, nil
}

// uploadExtensionPattern matches the extensions an upload may keep.
var uploadExtensionPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// uploadExtension returns the lower-cased extension of a client file name, or
// "" when it has none or it is not plain ASCII alphanumerics.
func uploadExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if !uploadExtensionPattern.MatchString(ext) {
		return ""
	}
	return ext
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archivePath := fm.getArchivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; copy and delete instead.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file. An existing archive
// entry with the same name is never overwritten.
func (fm *FileManager) getArchivePath(filePath string) string {
	dir := fm.ArchiveDir
	if fm.UseTimestampSubdirs {
		now := time.Now()
		dir = filepath.Join(
			dir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
	}

	target := filepath.Join(dir, filepath.Base(filePath))
	if FileExists(target) {
		ext := filepath.Ext(target)
		target = strings.TrimSuffix(target, ext) + "_" + uuid.New().String()[:8] + ext
	}
	return target
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique report file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {time}      - Current time (HHMMSS)
//     plus any key of params, e.g. {fin} and {spo}
//   - ext: The extension the name must end with, e.g. ".json".
//   - params: A map of placeholder values.
//
// EXAMPLE:
//
//	format: "reconciliation_{timestamp}_{uuid}"
//	output: "reconciliation_20240115_143022_a1b2c3d4-e5f6-7890-abcd-ef1234567890.json"
func GenerateOutputFileName(format, ext string, params map[string]string) string {
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

	// Swap whatever extension the format carries for the requested one.
	if ext != "" && !strings.EqualFold(filepath.Ext(result), ext) {
		result = strings.TrimSuffix(result, filepath.Ext(result)) + ext
	}

	return result
}

// =============================================================================
// RETENTION
// =============================================================================

// CleanOldFiles removes files in dir older than maxAge. A missing directory
// holds nothing to clean.
//
// RETURNS:
//   - The number of files removed.
//   - An error if cleaning fails.
func CleanOldFiles(dir string, maxAge time.Duration) (int, error) {
	if !FileExists(dir) {
		return 0, nil
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
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
		return removed, fmt.Errorf("failed to clean %s: %w", dir, err)
	}

	return removed, nil
}

// =============================================================================
// WARNING LOG GENERATION
// =============================================================================

// LogEntry represents a single row-level warning.
type LogEntry struct {
	Timestamp  time.Time
	FileName   string
	Dataset    string
	Rule       string
	Message    string
	RowNumber  int
	FieldName  string
	FieldValue string
}

// WriteWarningLog writes warning entries to a text file in outputDir.
//
// RETURNS:
//   - The path to the log file, or "" when there is nothing to write.
//   - An error if writing fails.
func WriteWarningLog(entries []LogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logFileName := fmt.Sprintf("warning_log_%s_%s.txt",
		time.Now().Format("20060102_150405"), uuid.New().String()[:8])
	logPath := filepath.Join(outputDir, logFileName)

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create warning log: %w", err)
	}

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "CSV Reconciler - Row Warning Log\n"+
		"Generated: %s\n"+
		"Total Warnings: %d\n"+
		"================================================================================\n\n",
		time.Now().Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Warning #%d\n"+
			"  Timestamp:  %s\n"+
			"  File:       %s\n"+
			"  Dataset:    %s\n"+
			"  Rule:       %s\n"+
			"  Message:    %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.FileName,
			entry.Dataset,
			entry.Rule,
			entry.Message)

		if entry.RowNumber > 0 {
			fmt.Fprintf(writer, "  Row Number: %d\n", entry.RowNumber)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(writer, "  Field:      %s\n", entry.FieldName)
		}
		if entry.FieldValue != "" {
			fmt.Fprintf(writer, "  Value:      %s\n", entry.FieldValue)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Warning Log\n")

	if err := writer.Flush(); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to flush warning log: %w", err)
	}

	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close warning log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
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

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}
	if err := destFile.Sync(); err != nil {
		destFile.Close()
		return err
	}
	return destFile.Close()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
