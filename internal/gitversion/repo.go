// SPDX-License-Identifier: MPL-2.0

package gitversion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/blang/semver"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

var labelUnsafe = regexp.MustCompile(`[^0-9A-Za-z-]+`)

// RepoSource derives version metadata from the semver tags of the git
// repository containing dir. The nearest tagged ancestor of HEAD is the
// version source; commits after it bump the patch number, and on branches
// other than main or master they also add a pre-release label.
type RepoSource struct{}

// Version implements Source.
func (RepoSource) Version(ctx context.Context, dir string) (*Info, []byte, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	tagged, err := taggedVersions(repo)
	if err != nil {
		return nil, nil, err
	}

	commits, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to walk history: %w", err)
	}
	defer commits.Close()

	base := semver.Version{Minor: 1}
	var count int64
	err = commits.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if v, ok := tagged[c.Hash]; ok {
			base = v
			return storer.ErrStop
		}
		count++
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to walk history: %w", err)
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read HEAD commit: %w", err)
	}

	branch := "HEAD"
	if head.Name().IsBranch() {
		branch = head.Name().Short()
	}

	info := build(base, count, branch, head.Hash().String(), commit.Committer.When.Format("2006-01-02"))
	data, err := json.Marshal(info)
	if err != nil {
		return nil, nil, err
	}
	return info, data, nil
}

func taggedVersions(repo *git.Repository) (map[plumbing.Hash]semver.Version, error) {
	tags, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	out := make(map[plumbing.Hash]semver.Version)
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		v, err := semver.ParseTolerant(ref.Name().Short())
		if err != nil {
			return nil
		}
		hash := ref.Hash()
		if tag, err := repo.TagObject(hash); err == nil {
			c, err := tag.Commit()
			if err != nil {
				return nil
			}
			hash = c.Hash
		} else if !errors.Is(err, plumbing.ErrObjectNotFound) {
			return err
		}
		if cur, ok := out[hash]; !ok || v.GT(cur) {
			out[hash] = v
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}
	return out, nil
}

func build(base semver.Version, commits int64, branch, sha, date string) *Info {
	v := base
	if commits > 0 {
		v.Patch++
	}
	v.Pre = nil
	v.Build = nil

	mmp := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	info := &Info{
		Major:                           int(v.Major),
		Minor:                           int(v.Minor),
		Patch:                           int(v.Patch),
		MajorMinorPatch:                 Text(mmp),
		AssemblySemVer:                  Text(fmt.Sprintf("%d.%d.%d.0", v.Major, v.Minor, v.Patch)),
		AssemblySemFileVer:              Text(fmt.Sprintf("%d.%d.%d.0", v.Major, v.Minor, v.Patch)),
		BranchName:                      Text(branch),
		Sha:                             Text(sha),
		CommitDate:                      Text(date),
		CommitsSinceVersionSource:       &commits,
		CommitsSinceVersionSourcePadded: Text(pad(commits)),
	}

	semVer := mmp
	if commits > 0 && branch != "main" && branch != "master" {
		label := strings.Trim(labelUnsafe.ReplaceAllString(branch, "-"), "-")
		if label == "" {
			label = "ci"
		}
		n := commits
		info.PreReleaseLabel = Text(label)
		info.PreReleaseNumber = &n
		info.PreReleaseTag = Text(label + "." + strconv.FormatInt(n, 10))
		info.PreReleaseTagWithDash = "-" + info.PreReleaseTag
		info.NuGetPreReleaseTagV2 = Text(label + pad(n))
		info.NuGetPreReleaseTag = info.NuGetPreReleaseTagV2
		semVer += string(info.PreReleaseTagWithDash)
	}

	info.SemVer = Text(semVer)
	info.LegacySemVer = Text(semVer)
	info.LegacySemVerPadded = Text(semVer)
	info.FullSemVer = Text(semVer)
	if commits > 0 {
		info.BuildMetaData = Text(strconv.FormatInt(commits, 10))
		info.BuildMetaDataPadded = Text(pad(commits))
		info.FullSemVer = Text(semVer + "+" + string(info.BuildMetaData))
	}
	info.FullBuildMetaData = Text(fmt.Sprintf("%s.Branch.%s.Sha.%s", info.BuildMetaData, branch, sha))
	info.InformationalVersion = Text(fmt.Sprintf("%s+%s", semVer, strings.TrimPrefix(string(info.FullBuildMetaData), ".")))
	info.NuGetVersionV2 = Text(mmp)
	if info.NuGetPreReleaseTagV2 != "" {
		info.NuGetVersionV2 += "-" + info.NuGetPreReleaseTagV2
	}
	info.NuGetVersion = info.NuGetVersionV2
	return info
}
