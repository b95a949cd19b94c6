package git

import (
	stdErrors "errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// ShortHashLength is the number of hex digits Revision keeps.
const ShortHashLength = 12

// ErrNotRepository is returned when dir is not inside a git work tree.
var ErrNotRepository = stdErrors.New("not a git repository")

// Revision returns the abbreviated HEAD commit of the repository containing dir.
// A repository without commits yields an empty revision and no error.
func Revision(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if stdErrors.Is(err, git.ErrRepositoryNotExists) {
			return "", ErrNotRepository
		}
		return "", errors.WrapError(err, errors.CategoryFileSystem, "open repository").WithFile(dir).Build()
	}
	ref, err := repo.Head()
	if err != nil {
		if stdErrors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", errors.WrapError(err, errors.CategoryFileSystem, "read HEAD").WithFile(dir).Build()
	}
	hash := ref.Hash().String()
	if len(hash) > ShortHashLength {
		hash = hash[:ShortHashLength]
	}
	return hash, nil
}
