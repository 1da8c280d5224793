package migrate

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/temirov/svnport/internal/history"
)

const (
	revisionMapDirectoryModeConstant       = 0o755
	revisionMapFileModeConstant            = 0o644
	revisionMapIndentConstant              = 2
	revisionMapEncodeErrorTemplateConstant = "encode revision map: %w"
	revisionMapWriteErrorTemplateConstant  = "write revision map %s: %w"
	revisionMapFilesystemMissingMessage    = "revision map filesystem not configured"
	revisionMapFailedStatusConstant        = "FAILED"
)

// ErrRevisionMapFilesystemNotConfigured indicates a writer without a filesystem.
var ErrRevisionMapFilesystemNotConfigured = errors.New(revisionMapFilesystemMissingMessage)

// RevisionMapReport is the document written after a migration run.
type RevisionMapReport struct {
	MigrationID string                  `yaml:"migration_id"`
	Status      string                  `yaml:"status"`
	Failure     string                  `yaml:"failure,omitempty"`
	Owners      []RevisionMapOwnerEntry `yaml:"owners"`
}

// MarkFailed records a run stopped by a fatal error so the report does not read as
// a blocked or retryable run.
func (report *RevisionMapReport) MarkFailed(failure error) {
	report.Status = revisionMapFailedStatusConstant
	if failure != nil {
		report.Failure = failure.Error()
	}
}

// RevisionMapOwnerEntry lists the commits recorded for one owner in revision order.
type RevisionMapOwnerEntry struct {
	Owner   string                   `yaml:"owner"`
	Commits []RevisionMapCommitEntry `yaml:"commits"`
}

// RevisionMapCommitEntry maps a source revision to the commit it produced.
type RevisionMapCommitEntry struct {
	Revision int64  `yaml:"revision"`
	Commit   string `yaml:"commit"`
}

// NewRevisionMapReport converts a commit index snapshot into a report.
func NewRevisionMapReport(migrationID string, status history.Status, commitLogs []history.OwnerCommitLog) RevisionMapReport {
	report := RevisionMapReport{MigrationID: migrationID, Status: status.String(), Owners: make([]RevisionMapOwnerEntry, 0, len(commitLogs))}
	for _, commitLog := range commitLogs {
		ownerEntry := RevisionMapOwnerEntry{Owner: commitLog.Owner.String(), Commits: make([]RevisionMapCommitEntry, 0, len(commitLog.Commits))}
		for _, commit := range commitLog.Commits {
			ownerEntry.Commits = append(ownerEntry.Commits, RevisionMapCommitEntry{Revision: commit.Revision, Commit: commit.CommitID.String()})
		}
		report.Owners = append(report.Owners, ownerEntry)
	}
	return report
}

// RevisionMapWriter persists revision map reports as YAML.
type RevisionMapWriter struct {
	filesystem afero.Fs
}

// NewRevisionMapWriter constructs a writer backed by filesystem.
func NewRevisionMapWriter(filesystem afero.Fs) (*RevisionMapWriter, error) {
	if filesystem == nil {
		return nil, ErrRevisionMapFilesystemNotConfigured
	}
	return &RevisionMapWriter{filesystem: filesystem}, nil
}

// Write encodes report to reportPath, creating parent directories as needed.
func (writer *RevisionMapWriter) Write(reportPath string, report RevisionMapReport) error {
	var encoded bytes.Buffer
	encoder := yaml.NewEncoder(&encoded)
	encoder.SetIndent(revisionMapIndentConstant)
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf(revisionMapEncodeErrorTemplateConstant, err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf(revisionMapEncodeErrorTemplateConstant, err)
	}

	if err := writer.filesystem.MkdirAll(filepath.Dir(reportPath), revisionMapDirectoryModeConstant); err != nil {
		return fmt.Errorf(revisionMapWriteErrorTemplateConstant, reportPath, err)
	}
	if err := afero.WriteFile(writer.filesystem, reportPath, encoded.Bytes(), revisionMapFileModeConstant); err != nil {
		return fmt.Errorf(revisionMapWriteErrorTemplateConstant, reportPath, err)
	}
	return nil
}
