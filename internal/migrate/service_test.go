package migrate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/svnport/internal/gitrepo"
	"github.com/temirov/svnport/internal/history"
	"github.com/temirov/svnport/internal/migrate"
	"github.com/temirov/svnport/internal/snapshot"
)

const (
	testPlanPathConstant        = "/work/plan.yaml"
	testRepositoryPathConstant  = "/work/target"
	testRevisionMapPathConstant = "/work/reports/revisions.yaml"
	testMigrationIDConstant     = "migration-0001"
	testEmailDomainConstant     = "example.com"
	testDefaultAuthorConstant   = "Migration Bot <bot@example.com>"
	testFeatureBranchConstant   = "feature"
	testReleaseTagConstant      = "v1"
	testFileNameConstant        = "README.md"
)

var testEpoch = time.Date(2021, time.March, 4, 5, 6, 7, 0, time.UTC)

type stubPlanLoader struct {
	provider       history.StaticPlanProvider
	err            error
	requestedPaths []string
}

func (loader *stubPlanLoader) Load(manifestPath string) (history.StaticPlanProvider, error) {
	loader.requestedPaths = append(loader.requestedPaths, manifestPath)
	if loader.err != nil {
		return history.StaticPlanProvider{}, loader.err
	}
	return loader.provider, nil
}

type stubAdapterFactory struct {
	adapter        history.TargetAdapter
	err            error
	requestedKinds []migrate.AdapterKind
}

func (factory *stubAdapterFactory) OpenTargetAdapter(_ context.Context, kind migrate.AdapterKind, _ string, _ *zap.Logger) (history.TargetAdapter, error) {
	factory.requestedKinds = append(factory.requestedKinds, kind)
	if factory.err != nil {
		return nil, factory.err
	}
	return factory.adapter, nil
}

type failingRevisionMapRecorder struct{}

func (failingRevisionMapRecorder) Write(string, migrate.RevisionMapReport) error {
	return errors.New("disk full")
}

func contentView(revision int64, author string, body string) history.View {
	return history.View{
		Revision:   revision,
		Timestamp:  testEpoch.Add(time.Duration(revision) * time.Minute),
		Author:     author,
		LogMessage: body,
		Content:    snapshot.InlineSnapshot{Files: map[string][]byte{testFileNameConstant: []byte(body)}},
	}
}

func completePlanSet() history.StaticPlanProvider {
	return history.StaticPlanProvider{
		Trunk: history.Plan{
			Owner: history.TrunkOwner(),
			Views: []history.View{contentView(1, "alice", "initial"), contentView(2, "bob", "second")},
		},
		Branches: []history.Plan{{
			Owner:  history.BranchOwner(testFeatureBranchConstant),
			Anchor: &history.Anchor{BaseOwner: history.TrunkOwner(), BaseRevision: 1},
			Views:  []history.View{contentView(3, "alice", "feature work")},
		}},
		Tags: []history.Plan{{
			Owner:  history.TagOwner(testReleaseTagConstant),
			Anchor: &history.Anchor{BaseOwner: history.BranchOwner(testFeatureBranchConstant), BaseRevision: 3},
		}},
	}
}

type serviceFixture struct {
	service    *migrate.Service
	loader     *stubPlanLoader
	factory    *stubAdapterFactory
	adapter    *gitrepo.RepositoryAdapter
	filesystem afero.Fs
}

func newServiceFixture(testInstance *testing.T, provider history.StaticPlanProvider) serviceFixture {
	testInstance.Helper()
	adapter, err := gitrepo.NewInMemoryRepositoryAdapter()
	require.NoError(testInstance, err)

	filesystem := afero.NewMemMapFs()
	revisionMapWriter, err := migrate.NewRevisionMapWriter(filesystem)
	require.NoError(testInstance, err)

	loader := &stubPlanLoader{provider: provider}
	factory := &stubAdapterFactory{adapter: adapter}
	service, err := migrate.NewService(migrate.ServiceDependencies{
		Logger:              zap.NewNop(),
		PlanLoader:          loader,
		AdapterFactory:      factory,
		RevisionMap:         revisionMapWriter,
		IdentifierGenerator: func() string { return testMigrationIDConstant },
		Clock:               func() time.Time { return testEpoch },
	})
	require.NoError(testInstance, err)

	return serviceFixture{service: service, loader: loader, factory: factory, adapter: adapter, filesystem: filesystem}
}

func defaultOptions(testInstance *testing.T) migrate.MigrationOptions {
	testInstance.Helper()
	authors, err := migrate.NewAuthorDirectory(map[string]string{"alice": "Alice Example <alice@example.com>"}, testDefaultAuthorConstant, testEmailDomainConstant)
	require.NoError(testInstance, err)
	return migrate.MigrationOptions{
		PlanPath:        testPlanPathConstant,
		RepositoryPath:  testRepositoryPathConstant,
		Adapter:         migrate.AdapterKindGoGit,
		Authors:         authors,
		SkipCompaction:  true,
		RevisionMapPath: testRevisionMapPathConstant,
	}
}

func readRevisionMap(testInstance *testing.T, filesystem afero.Fs) migrate.RevisionMapReport {
	testInstance.Helper()
	contents, err := afero.ReadFile(filesystem, testRevisionMapPathConstant)
	require.NoError(testInstance, err)
	var report migrate.RevisionMapReport
	require.NoError(testInstance, yaml.Unmarshal(contents, &report))
	return report
}

func TestServiceExecuteMigratesHistory(testInstance *testing.T) {
	fixture := newServiceFixture(testInstance, completePlanSet())

	result, err := fixture.service.Execute(context.Background(), defaultOptions(testInstance))
	require.NoError(testInstance, err)

	require.Equal(testInstance, testMigrationIDConstant, result.MigrationID)
	require.Equal(testInstance, 3, result.RecordedCommits)
	require.True(testInstance, result.RevisionMapWritten)
	require.True(testInstance, result.Outcome.Trunk)
	require.False(testInstance, result.Outcome.Cancelled)
	require.Equal(testInstance, []history.Owner{history.BranchOwner(testFeatureBranchConstant)}, result.Outcome.Branches)
	require.Equal(testInstance, []history.Owner{history.TagOwner(testReleaseTagConstant)}, result.Outcome.Tags)
	require.Empty(testInstance, result.Outcome.Pending)
	require.Equal(testInstance, []string{testPlanPathConstant}, fixture.loader.requestedPaths)
	require.Equal(testInstance, []migrate.AdapterKind{migrate.AdapterKindGoGit}, fixture.factory.requestedKinds)

	_, err = fixture.adapter.Repository().Tag(testReleaseTagConstant)
	require.NoError(testInstance, err)

	report := readRevisionMap(testInstance, fixture.filesystem)
	require.Equal(testInstance, testMigrationIDConstant, report.MigrationID)
	require.Equal(testInstance, result.Outcome.Status.String(), report.Status)
	require.Len(testInstance, report.Owners, 2)
	require.Equal(testInstance, "branches/feature", report.Owners[0].Owner)
	require.Equal(testInstance, "trunk", report.Owners[1].Owner)
	require.Len(testInstance, report.Owners[1].Commits, 2)
	require.Equal(testInstance, int64(1), report.Owners[1].Commits[0].Revision)
	require.NotEmpty(testInstance, report.Owners[1].Commits[0].Commit)
}

func TestServiceExecuteWritesRevisionMapWhenBlocked(testInstance *testing.T) {
	provider := completePlanSet()
	provider.Tags[0].Anchor = &history.Anchor{BaseOwner: history.BranchOwner("missing"), BaseRevision: 3}
	fixture := newServiceFixture(testInstance, provider)

	result, err := fixture.service.Execute(context.Background(), defaultOptions(testInstance))
	require.ErrorIs(testInstance, err, history.ErrBlockedOnExtract)

	require.True(testInstance, result.RevisionMapWritten)
	require.Equal(testInstance, []history.Owner{history.TagOwner(testReleaseTagConstant)}, result.Outcome.Pending)

	report := readRevisionMap(testInstance, fixture.filesystem)
	require.Equal(testInstance, history.StatusBlocked.String(), report.Status)
	require.Empty(testInstance, report.Failure)
	require.Len(testInstance, report.Owners, 2)
}

func TestServiceExecuteReportsFatalFailureAsFailed(testInstance *testing.T) {
	provider := completePlanSet()
	provider.Branches = append(provider.Branches, provider.Branches[0])
	fixture := newServiceFixture(testInstance, provider)

	result, err := fixture.service.Execute(context.Background(), defaultOptions(testInstance))
	require.ErrorContains(testInstance, err, "duplicate owner")
	require.True(testInstance, result.Outcome.Failed)
	require.True(testInstance, result.RevisionMapWritten)

	report := readRevisionMap(testInstance, fixture.filesystem)
	require.Equal(testInstance, "FAILED", report.Status)
	require.NotEqual(testInstance, history.StatusRepeat.String(), report.Status)
	require.Contains(testInstance, report.Failure, "duplicate owner")
	require.Empty(testInstance, report.Owners)
}

func TestServiceExecuteReturnsPartialResultWhenCancelled(testInstance *testing.T) {
	fixture := newServiceFixture(testInstance, completePlanSet())
	executionContext, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := fixture.service.Execute(executionContext, defaultOptions(testInstance))
	require.NoError(testInstance, err)

	require.True(testInstance, result.Outcome.Cancelled)
	require.False(testInstance, result.Outcome.Trunk)
	require.Zero(testInstance, result.RecordedCommits)
	require.Equal(testInstance, []history.Owner{history.BranchOwner(testFeatureBranchConstant), history.TagOwner(testReleaseTagConstant)}, result.Outcome.Pending)

	report := readRevisionMap(testInstance, fixture.filesystem)
	require.Equal(testInstance, history.StatusCancelled.String(), report.Status)
	require.Empty(testInstance, report.Owners)
}

func TestServiceExecuteSkipsRevisionMapWithoutPath(testInstance *testing.T) {
	fixture := newServiceFixture(testInstance, completePlanSet())
	options := defaultOptions(testInstance)
	options.RevisionMapPath = ""

	result, err := fixture.service.Execute(context.Background(), options)
	require.NoError(testInstance, err)
	require.False(testInstance, result.RevisionMapWritten)

	exists, err := afero.Exists(fixture.filesystem, testRevisionMapPathConstant)
	require.NoError(testInstance, err)
	require.False(testInstance, exists)
}

func TestServiceExecuteReportsRevisionMapFailure(testInstance *testing.T) {
	adapter, err := gitrepo.NewInMemoryRepositoryAdapter()
	require.NoError(testInstance, err)
	service, err := migrate.NewService(migrate.ServiceDependencies{
		PlanLoader:     &stubPlanLoader{provider: completePlanSet()},
		AdapterFactory: &stubAdapterFactory{adapter: adapter},
		RevisionMap:    failingRevisionMapRecorder{},
	})
	require.NoError(testInstance, err)

	result, err := service.Execute(context.Background(), defaultOptions(testInstance))
	require.ErrorContains(testInstance, err, "revision map")
	require.False(testInstance, result.RevisionMapWritten)
	require.Equal(testInstance, 3, result.RecordedCommits)
	require.NotEmpty(testInstance, result.MigrationID)
}

func TestServiceExecuteStopsOnCollaboratorFailures(testInstance *testing.T) {
	loadError := errors.New("manifest unreadable")
	openError := errors.New("repository locked")

	testCases := []struct {
		name          string
		loaderError   error
		factoryError  error
		expectedError error
	}{
		{name: "plan_load_failure", loaderError: loadError, expectedError: loadError},
		{name: "adapter_open_failure", factoryError: openError, expectedError: openError},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newServiceFixture(testInstance, completePlanSet())
			fixture.loader.err = testCase.loaderError
			fixture.factory.err = testCase.factoryError

			result, err := fixture.service.Execute(context.Background(), defaultOptions(testInstance))
			require.ErrorIs(testInstance, err, testCase.expectedError)
			require.False(testInstance, result.RevisionMapWritten)
			require.Equal(testInstance, testMigrationIDConstant, result.MigrationID)
		})
	}
}

func TestServiceExecuteValidatesOptions(testInstance *testing.T) {
	testCases := []struct {
		name          string
		mutate        func(*migrate.MigrationOptions)
		expectedField string
	}{
		{name: "missing_plan", mutate: func(options *migrate.MigrationOptions) { options.PlanPath = "  " }, expectedField: "plan"},
		{name: "missing_repository", mutate: func(options *migrate.MigrationOptions) { options.RepositoryPath = "" }, expectedField: "repository"},
		{name: "unknown_adapter", mutate: func(options *migrate.MigrationOptions) { options.Adapter = "hg" }, expectedField: "adapter"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newServiceFixture(testInstance, completePlanSet())
			options := defaultOptions(testInstance)
			testCase.mutate(&options)

			_, err := fixture.service.Execute(context.Background(), options)
			var inputError migrate.InvalidInputError
			require.ErrorAs(testInstance, err, &inputError)
			require.Equal(testInstance, testCase.expectedField, inputError.FieldName)
			require.Empty(testInstance, fixture.loader.requestedPaths)
		})
	}
}

func TestServiceExecuteRequiresAuthorResolver(testInstance *testing.T) {
	fixture := newServiceFixture(testInstance, completePlanSet())
	options := defaultOptions(testInstance)
	options.Authors = nil

	_, err := fixture.service.Execute(context.Background(), options)
	require.Error(testInstance, err)
	require.Empty(testInstance, fixture.loader.requestedPaths)
}

func TestNewServiceRequiresCollaborators(testInstance *testing.T) {
	_, err := migrate.NewService(migrate.ServiceDependencies{AdapterFactory: &stubAdapterFactory{}})
	require.Error(testInstance, err)

	_, err = migrate.NewService(migrate.ServiceDependencies{PlanLoader: &stubPlanLoader{}})
	require.Error(testInstance, err)
}
