package migrate

import (
	"fmt"
	"net/mail"
	"strings"
)

const (
	authorsFieldNameConstant           = "authors"
	defaultAuthorFieldNameConstant     = "default_author"
	authorEmailDomainFieldNameConstant = "author_email_domain"
	authorEntryErrorTemplateConstant   = "entry %q: %v"
	authorEmailTemplateConstant        = "%s@%s"
	authorDomainMissingMessageConstant = "an email domain is required"
	authorDomainInvalidMessageConstant = "must not contain @"
)

type authorIdentity struct {
	name  string
	email string
}

// AuthorDirectory maps source usernames to git identities. Lookups ignore case.
// Unmapped usernames become <username>@<domain>; an empty username resolves to the
// default author.
type AuthorDirectory struct {
	identities    map[string]authorIdentity
	defaultAuthor authorIdentity
	emailDomain   string
}

// NewAuthorDirectory parses "Full Name <email>" entries.
func NewAuthorDirectory(entries map[string]string, defaultAuthor string, emailDomain string) (*AuthorDirectory, error) {
	trimmedDomain := strings.TrimSpace(emailDomain)
	if len(trimmedDomain) == 0 {
		return nil, InvalidInputError{FieldName: authorEmailDomainFieldNameConstant, Message: authorDomainMissingMessageConstant}
	}
	if strings.Contains(trimmedDomain, "@") {
		return nil, InvalidInputError{FieldName: authorEmailDomainFieldNameConstant, Message: authorDomainInvalidMessageConstant}
	}

	parsedDefault, err := parseAuthorIdentity(defaultAuthor)
	if err != nil {
		return nil, InvalidInputError{FieldName: defaultAuthorFieldNameConstant, Message: err.Error()}
	}

	identities := make(map[string]authorIdentity, len(entries))
	for userName, entry := range entries {
		identity, err := parseAuthorIdentity(entry)
		if err != nil {
			return nil, InvalidInputError{FieldName: authorsFieldNameConstant, Message: fmt.Sprintf(authorEntryErrorTemplateConstant, userName, err)}
		}
		identities[strings.ToLower(strings.TrimSpace(userName))] = identity
	}

	return &AuthorDirectory{identities: identities, defaultAuthor: parsedDefault, emailDomain: trimmedDomain}, nil
}

// ResolveAuthor returns the git name and email for userName.
func (directory *AuthorDirectory) ResolveAuthor(userName string) (string, string) {
	trimmedUserName := strings.TrimSpace(userName)
	if len(trimmedUserName) == 0 {
		return directory.defaultAuthor.name, directory.defaultAuthor.email
	}
	if identity, mapped := directory.identities[strings.ToLower(trimmedUserName)]; mapped {
		return identity.name, identity.email
	}
	return trimmedUserName, fmt.Sprintf(authorEmailTemplateConstant, trimmedUserName, directory.emailDomain)
}

func parseAuthorIdentity(entry string) (authorIdentity, error) {
	address, err := mail.ParseAddress(strings.TrimSpace(entry))
	if err != nil {
		return authorIdentity{}, err
	}
	name := address.Name
	if len(name) == 0 {
		name = address.Address
	}
	return authorIdentity{name: name, email: address.Address}, nil
}
