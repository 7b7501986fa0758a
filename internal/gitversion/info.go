// SPDX-License-Identifier: MPL-2.0

package gitversion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrDecode is matched by JSON decoding failures.
var ErrDecode = errors.New("failed to get git version")

type (
	// Text decodes a JSON string, number or null into a string. GitVersion
	// reports some fields as numbers in newer releases.
	Text string

	// Info is the version report for a repository.
	Info struct {
		Major                           int    `json:"Major"`
		Minor                           int    `json:"Minor"`
		Patch                           int    `json:"Patch"`
		PreReleaseTag                   Text   `json:"PreReleaseTag"`
		PreReleaseTagWithDash           Text   `json:"PreReleaseTagWithDash"`
		PreReleaseLabel                 Text   `json:"PreReleaseLabel"`
		PreReleaseNumber                *int64 `json:"PreReleaseNumber"`
		BuildMetaData                   Text   `json:"BuildMetaData"`
		BuildMetaDataPadded             Text   `json:"BuildMetaDataPadded"`
		FullBuildMetaData               Text   `json:"FullBuildMetaData"`
		MajorMinorPatch                 Text   `json:"MajorMinorPatch"`
		SemVer                          Text   `json:"SemVer"`
		LegacySemVer                    Text   `json:"LegacySemVer"`
		LegacySemVerPadded              Text   `json:"LegacySemVerPadded"`
		AssemblySemVer                  Text   `json:"AssemblySemVer"`
		AssemblySemFileVer              Text   `json:"AssemblySemFileVer"`
		FullSemVer                      Text   `json:"FullSemVer"`
		InformationalVersion            Text   `json:"InformationalVersion"`
		BranchName                      Text   `json:"BranchName"`
		Sha                             Text   `json:"Sha"`
		NuGetVersionV2                  Text   `json:"NuGetVersionV2"`
		NuGetVersion                    Text   `json:"NuGetVersion"`
		NuGetPreReleaseTagV2            Text   `json:"NuGetPreReleaseTagV2"`
		NuGetPreReleaseTag              Text   `json:"NuGetPreReleaseTag"`
		CommitsSinceVersionSource       *int64 `json:"CommitsSinceVersionSource"`
		CommitsSinceVersionSourcePadded Text   `json:"CommitsSinceVersionSourcePadded"`
		CommitDate                      Text   `json:"CommitDate"`
	}

	// Field is a named string field of Info.
	Field struct {
		Name  string
		Value string
	}
)

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*t = Text(n.String())
	}
	return nil
}

// FromJSON decodes a GitVersion JSON report.
func FromJSON(data []byte) (*Info, error) {
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &info, nil
}

// Version is the value bound to VERSION: NuGetVersionV2 when present, else
// MajorMinorPatch.
func (i *Info) Version() string {
	if i.NuGetVersionV2 != "" {
		return string(i.NuGetVersionV2)
	}
	return string(i.MajorMinorPatch)
}

// StringFields lists the string-valued fields in declaration order.
func (i *Info) StringFields() []Field {
	return []Field{
		{"PreReleaseTag", string(i.PreReleaseTag)},
		{"PreReleaseTagWithDash", string(i.PreReleaseTagWithDash)},
		{"PreReleaseLabel", string(i.PreReleaseLabel)},
		{"BuildMetaData", string(i.BuildMetaData)},
		{"BuildMetaDataPadded", string(i.BuildMetaDataPadded)},
		{"FullBuildMetaData", string(i.FullBuildMetaData)},
		{"MajorMinorPatch", string(i.MajorMinorPatch)},
		{"SemVer", string(i.SemVer)},
		{"LegacySemVer", string(i.LegacySemVer)},
		{"LegacySemVerPadded", string(i.LegacySemVerPadded)},
		{"AssemblySemVer", string(i.AssemblySemVer)},
		{"AssemblySemFileVer", string(i.AssemblySemFileVer)},
		{"FullSemVer", string(i.FullSemVer)},
		{"InformationalVersion", string(i.InformationalVersion)},
		{"BranchName", string(i.BranchName)},
		{"Sha", string(i.Sha)},
		{"NuGetVersionV2", string(i.NuGetVersionV2)},
		{"NuGetVersion", string(i.NuGetVersion)},
		{"NuGetPreReleaseTagV2", string(i.NuGetPreReleaseTagV2)},
		{"NuGetPreReleaseTag", string(i.NuGetPreReleaseTag)},
		{"CommitsSinceVersionSourcePadded", string(i.CommitsSinceVersionSourcePadded)},
		{"CommitDate", string(i.CommitDate)},
	}
}

// pad left-pads n with zeros to four digits, as GitVersion does.
func pad(n int64) string {
	s := strconv.FormatInt(n, 10)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
