package migrate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/svnport/internal/migrate"
)

func TestAuthorDirectoryResolveAuthor(testInstance *testing.T) {
	directory, err := migrate.NewAuthorDirectory(
		map[string]string{
			"Alice": "Alice Example <alice@corp.example>",
			"ops":   "ops-team@corp.example",
		},
		testDefaultAuthorConstant,
		testEmailDomainConstant,
	)
	require.NoError(testInstance, err)

	testCases := []struct {
		name          string
		userName      string
		expectedName  string
		expectedEmail string
	}{
		{name: "mapped_user", userName: "Alice", expectedName: "Alice Example", expectedEmail: "alice@corp.example"},
		{name: "mapped_user_ignores_case", userName: "alice", expectedName: "Alice Example", expectedEmail: "alice@corp.example"},
		{name: "bare_address_uses_address_as_name", userName: "ops", expectedName: "ops-team@corp.example", expectedEmail: "ops-team@corp.example"},
		{name: "unmapped_user", userName: " carol ", expectedName: "carol", expectedEmail: "carol@example.com"},
		{name: "empty_user_uses_default", userName: "", expectedName: "Migration Bot", expectedEmail: "bot@example.com"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			name, email := directory.ResolveAuthor(testCase.userName)
			require.Equal(testInstance, testCase.expectedName, name)
			require.Equal(testInstance, testCase.expectedEmail, email)
		})
	}
}

func TestNewAuthorDirectoryRejectsInvalidInput(testInstance *testing.T) {
	testCases := []struct {
		name          string
		entries       map[string]string
		defaultAuthor string
		emailDomain   string
		expectedField string
	}{
		{name: "missing_domain", defaultAuthor: testDefaultAuthorConstant, emailDomain: " ", expectedField: "author_email_domain"},
		{name: "domain_with_at_sign", defaultAuthor: testDefaultAuthorConstant, emailDomain: "user@example.com", expectedField: "author_email_domain"},
		{name: "malformed_default_author", defaultAuthor: "nobody", emailDomain: testEmailDomainConstant, expectedField: "default_author"},
		{name: "malformed_entry", entries: map[string]string{"bob": "Bob <not an address"}, defaultAuthor: testDefaultAuthorConstant, emailDomain: testEmailDomainConstant, expectedField: "authors"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, err := migrate.NewAuthorDirectory(testCase.entries, testCase.defaultAuthor, testCase.emailDomain)
			var inputError migrate.InvalidInputError
			require.ErrorAs(testInstance, err, &inputError)
			require.Equal(testInstance, testCase.expectedField, inputError.FieldName)
		})
	}
}
