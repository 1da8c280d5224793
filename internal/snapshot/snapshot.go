package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const (
	// ReservedMetadataDirectory is never touched by a mutator.
	ReservedMetadataDirectory = ".git"

	rootDirectoryConstant                = "/"
	defaultFileModeConstant              = os.FileMode(0o644)
	defaultDirectoryModeConstant         = os.FileMode(0o755)
	clearErrorTemplateConstant           = "clear working tree entry %s: %w"
	readWorkingTreeErrorTemplateConstant = "read working tree: %w"
	writeFileErrorTemplateConstant       = "write %s: %w"
	copyEntryErrorTemplateConstant       = "copy %s: %w"
	reservedPathErrorTemplateConstant    = "snapshot path %s is reserved"
)

// InlineSnapshot replaces the working tree with an in-memory set of files keyed by
// slash-separated path.
type InlineSnapshot struct {
	Files map[string][]byte
}

// Apply clears the working tree and writes every file of the snapshot.
func (snapshot InlineSnapshot) Apply(executionContext context.Context, workingFilesystem billy.Filesystem) error {
	if err := clearWorkingTree(executionContext, workingFilesystem); err != nil {
		return err
	}

	filePaths := make([]string, 0, len(snapshot.Files))
	for filePath := range snapshot.Files {
		filePaths = append(filePaths, filePath)
	}
	sort.Strings(filePaths)

	for _, filePath := range filePaths {
		cleanPath := path.Clean(rootDirectoryConstant + filePath)[1:]
		if isReserved(cleanPath) {
			return fmt.Errorf(reservedPathErrorTemplateConstant, filePath)
		}
		if err := util.WriteFile(workingFilesystem, cleanPath, snapshot.Files[filePath], defaultFileModeConstant); err != nil {
			return fmt.Errorf(writeFileErrorTemplateConstant, cleanPath, err)
		}
	}
	return nil
}

// DirectorySnapshot replaces the working tree with the contents of Root on Source.
type DirectorySnapshot struct {
	Source billy.Filesystem
	Root   string
}

// Apply clears the working tree and copies the snapshot directory into it.
func (snapshot DirectorySnapshot) Apply(executionContext context.Context, workingFilesystem billy.Filesystem) error {
	root := snapshot.Root
	if len(root) == 0 {
		root = rootDirectoryConstant
	}
	if _, err := snapshot.Source.Stat(root); err != nil {
		return fmt.Errorf(copyEntryErrorTemplateConstant, root, err)
	}
	if err := clearWorkingTree(executionContext, workingFilesystem); err != nil {
		return err
	}

	entries, err := snapshot.Source.ReadDir(root)
	if err != nil {
		return fmt.Errorf(copyEntryErrorTemplateConstant, root, err)
	}
	for _, entry := range entries {
		if entry.Name() == ReservedMetadataDirectory {
			continue
		}
		if err := copyTree(snapshot.Source, path.Join(root, entry.Name()), workingFilesystem, entry.Name()); err != nil {
			return err
		}
	}
	return nil
}

// clearWorkingTree refuses to start once executionContext is done. After the first
// removal it always runs to completion so a stop never leaves a half-written tree.
func clearWorkingTree(executionContext context.Context, workingFilesystem billy.Filesystem) error {
	if err := executionContext.Err(); err != nil {
		return err
	}
	entries, err := workingFilesystem.ReadDir(rootDirectoryConstant)
	if err != nil {
		return fmt.Errorf(readWorkingTreeErrorTemplateConstant, err)
	}
	for _, entry := range entries {
		if entry.Name() == ReservedMetadataDirectory {
			continue
		}
		if err := util.RemoveAll(workingFilesystem, entry.Name()); err != nil {
			return fmt.Errorf(clearErrorTemplateConstant, entry.Name(), err)
		}
	}
	return nil
}

func copyTree(source billy.Filesystem, sourcePath string, destination billy.Filesystem, destinationPath string) error {
	info, err := source.Lstat(sourcePath)
	if err != nil {
		return fmt.Errorf(copyEntryErrorTemplateConstant, sourcePath, err)
	}

	if !info.IsDir() {
		return copyFile(source, sourcePath, destination, destinationPath, info.Mode())
	}

	if err := destination.MkdirAll(destinationPath, defaultDirectoryModeConstant); err != nil {
		return fmt.Errorf(copyEntryErrorTemplateConstant, sourcePath, err)
	}
	entries, err := source.ReadDir(sourcePath)
	if err != nil {
		return fmt.Errorf(copyEntryErrorTemplateConstant, sourcePath, err)
	}
	for _, entry := range entries {
		if err := copyTree(source, path.Join(sourcePath, entry.Name()), destination, path.Join(destinationPath, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(source billy.Filesystem, sourcePath string, destination billy.Filesystem, destinationPath string, mode os.FileMode) error {
	sourceFile, err := source.Open(sourcePath)
	if err != nil {
		return fmt.Errorf(copyEntryErrorTemplateConstant, sourcePath, err)
	}
	defer sourceFile.Close()

	destinationFile, err := destination.OpenFile(destinationPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm())
	if err != nil {
		return fmt.Errorf(copyEntryErrorTemplateConstant, sourcePath, err)
	}
	if _, err := io.Copy(destinationFile, sourceFile); err != nil {
		destinationFile.Close()
		return fmt.Errorf(copyEntryErrorTemplateConstant, sourcePath, err)
	}
	return destinationFile.Close()
}

func isReserved(cleanPath string) bool {
	return len(cleanPath) == 0 || cleanPath == ReservedMetadataDirectory || strings.HasPrefix(cleanPath, ReservedMetadataDirectory+rootDirectoryConstant)
}
