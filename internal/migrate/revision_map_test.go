package migrate_test

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/svnport/internal/history"
	"github.com/temirov/svnport/internal/migrate"
)

const expectedRevisionMapDocumentConstant = `migration_id: migration-0001
status: FINISHED
owners:
  - owner: branches/feature
    commits:
      - revision: 7
        commit: abc123
  - owner: trunk
    commits:
      - revision: 1
        commit: def456
      - revision: 4
        commit: 0a1b2c
`

func TestRevisionMapWriterWritesYAML(testInstance *testing.T) {
	filesystem := afero.NewMemMapFs()
	writer, err := migrate.NewRevisionMapWriter(filesystem)
	require.NoError(testInstance, err)

	report := migrate.NewRevisionMapReport(testMigrationIDConstant, history.StatusFinished, []history.OwnerCommitLog{
		{Owner: history.BranchOwner(testFeatureBranchConstant), Commits: []history.IndexedCommit{{Revision: 7, CommitID: "abc123"}}},
		{Owner: history.TrunkOwner(), Commits: []history.IndexedCommit{{Revision: 1, CommitID: "def456"}, {Revision: 4, CommitID: "0a1b2c"}}},
	})

	require.NoError(testInstance, writer.Write(testRevisionMapPathConstant, report))

	contents, err := afero.ReadFile(filesystem, testRevisionMapPathConstant)
	require.NoError(testInstance, err)
	require.Equal(testInstance, expectedRevisionMapDocumentConstant, string(contents))
}

func TestRevisionMapWriterFailsOnReadOnlyFilesystem(testInstance *testing.T) {
	writer, err := migrate.NewRevisionMapWriter(afero.NewReadOnlyFs(afero.NewMemMapFs()))
	require.NoError(testInstance, err)

	err = writer.Write(testRevisionMapPathConstant, migrate.NewRevisionMapReport(testMigrationIDConstant, history.StatusFinished, nil))
	require.ErrorContains(testInstance, err, testRevisionMapPathConstant)
}

func TestNewRevisionMapWriterRequiresFilesystem(testInstance *testing.T) {
	_, err := migrate.NewRevisionMapWriter(nil)
	require.ErrorIs(testInstance, err, migrate.ErrRevisionMapFilesystemNotConfigured)
}

const testFailureMessageConstant = "build trunk: target repository I/O failure"

func TestRevisionMapWriterRecordsFailure(testInstance *testing.T) {
	filesystem := afero.NewMemMapFs()
	writer, err := migrate.NewRevisionMapWriter(filesystem)
	require.NoError(testInstance, err)

	report := migrate.NewRevisionMapReport(testMigrationIDConstant, history.StatusBlocked, nil)
	report.MarkFailed(errors.New(testFailureMessageConstant))
	require.NoError(testInstance, writer.Write(testRevisionMapPathConstant, report))

	written := readRevisionMap(testInstance, filesystem)
	require.Equal(testInstance, "FAILED", written.Status)
	require.Equal(testInstance, testFailureMessageConstant, written.Failure)
	require.Equal(testInstance, testMigrationIDConstant, written.MigrationID)
}
